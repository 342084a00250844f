package daemon

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 16

// trayIcon returns a 16x16 ICO: a sun on a transparent background
func trayIcon() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	sun := color.NRGBA{R: 0xF5, G: 0xB0, B: 0x1A, A: 0xFF}
	const c, r2 = 7.5, 36.0
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy <= r2 {
				img.Set(x, y, sun)
			}
		}
	}

	var pngData bytes.Buffer
	_ = png.Encode(&pngData, img)

	// ICONDIR + one ICONDIRENTRY pointing at the embedded PNG
	var ico bytes.Buffer
	_ = binary.Write(&ico, binary.LittleEndian, [3]uint16{0, 1, 1})
	ico.Write([]byte{iconSize, iconSize, 0, 0})
	_ = binary.Write(&ico, binary.LittleEndian, [2]uint16{1, 32})
	_ = binary.Write(&ico, binary.LittleEndian, [2]uint32{uint32(pngData.Len()), 22})
	ico.Write(pngData.Bytes())
	return ico.Bytes()
}
