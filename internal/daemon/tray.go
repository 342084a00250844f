//go:build windows

package daemon

import (
	"sync"
	"syscall"
	"unsafe"

	"fyne.io/systray"
	"go.uber.org/zap"
)

var (
	user32      = syscall.NewLazyDLL("user32.dll")
	messageBoxW = user32.NewProc("MessageBoxW")
)

const (
	mbOK              = 0x00000000
	mbIconInformation = 0x00000040
)

// TrayApp represents system tray application
type TrayApp struct {
	daemon *Daemon
	logger *zap.Logger
	quit   chan struct{}
	once   sync.Once
	done   chan error // Daemon result, buffered
}

// NewTrayApp creates a new system tray application
func NewTrayApp(daemon *Daemon, logger *zap.Logger) (*TrayApp, error) {
	return &TrayApp{
		daemon: daemon,
		logger: logger,
		quit:   make(chan struct{}),
		done:   make(chan error, 1),
	}, nil
}

// Run starts the system tray application (blocks until Quit) and returns
// the error the daemon stopped with
func (t *TrayApp) Run() error {
	systray.Run(t.onReady, t.onExit)
	return <-t.done
}

func (t *TrayApp) onReady() {
	systray.SetIcon(trayIcon())
	systray.SetTitle("Semester")
	systray.SetTooltip("Semesterplan")

	mSaveNow := systray.AddMenuItem("Save now", "Save the plan immediately")
	systray.AddSeparator()
	mStatus := systray.AddMenuItem("Status", "Show budget and storage status")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the application")

	t.daemon.runInBackground(t.done, t.Stop)

	go func() {
		for {
			select {
			case <-mSaveNow.ClickedCh:
				t.logger.Info("Save now clicked from tray")
				go t.daemon.SaveNow()
			case <-mStatus.ClickedCh:
				t.logger.Info("Status clicked from tray")
				t.showStatus()
			case <-mQuit.ClickedCh:
				t.logger.Info("Quit clicked from tray")
				t.daemon.Stop()
			case <-t.quit:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *TrayApp) onExit() {
	t.logger.Info("System tray exited")
}

// Stop stops the system tray application. Safe to call more than once.
func (t *TrayApp) Stop() {
	t.once.Do(func() { close(t.quit) })
}

// ShowNotification shows a notification
func (t *TrayApp) ShowNotification(title, message string) {
	// fyne.io/systray has no notification support
	t.logger.Info("Notification", zap.String("title", title), zap.String("message", message))
}

func (t *TrayApp) showStatus() {
	message := t.daemon.GetStatus().Text()
	systray.SetTooltip(message)
	showMessageBox("Semesterplan", message)
}

func showMessageBox(title, message string) {
	titlePtr, _ := syscall.UTF16PtrFromString(title)
	messagePtr, _ := syscall.UTF16PtrFromString(message)
	messageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(mbOK|mbIconInformation),
	)
}
