package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskchime/internal/platform"
	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

func (s *Service) push(target platform.Target, title, message string) {
	switch target {
	case platform.MacOS:
		s.pushMacOS(target, title, message)
	case platform.LinuxNative:
		s.pushLinux(target, title, message)
	case platform.Windows, platform.LinuxWSL2:
		s.pushWindows(target, title, message)
	}
}

// pushMacOS shells out to osascript with a generated one-liner. Quotes are
// the only character that can break out of the script literal, so they are
// escaped; osascript itself is assumed present on every macOS install.
func (s *Service) pushMacOS(target platform.Target, title, message string) {
	script := fmt.Sprintf(`display notification "%s" with title "%s" sound name "Glass"`,
		escapeAppleScript(message), escapeAppleScript(title))

	err := s.run.Launch(procrun.Cmd{Name: "osascript", Args: []string{"-e", script}})
	if err != nil {
		s.log.Warn("osascript launch failed", logx.Err(err))
		s.publish(launchFailed, Outcome{Channel: "push", Platform: target.String(), Mechanism: "osascript", Detail: err.Error()})
		return
	}
	s.publish(sent, Outcome{Channel: "push", Platform: target.String(), Mechanism: "osascript"})
}

func escapeAppleScript(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

// pushLinux delivers a toast over the desktop bus, gated by the availability
// circuit and bounded by a hard timeout.
//
// The timeout races the call itself, not just its context: some bus clients
// hang indefinitely regardless of cancellation, and a single hang must not
// stall the dispatcher. On expiry the result is abandoned and the gate trips
// so no future dispatch risks the same hang.
func (s *Service) pushLinux(target platform.Target, title, message string) {
	if !s.gate.Available() {
		s.log.Debug("skipping desktop notification, bus unavailable")
		s.publish(skipped, Outcome{Channel: "push", Platform: target.String(), Detail: "desktop bus unavailable"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), toastCallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("toast call panicked: %v", r)
			}
		}()
		done <- s.toast(ctx, title, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Error("desktop notification failed", logx.Err(err))
			s.gate.Trip("toast call failed")
			s.publish(launchFailed, Outcome{Channel: "push", Platform: target.String(), Mechanism: "dbus", Detail: err.Error()})
			return
		}
		s.publish(sent, Outcome{Channel: "push", Platform: target.String(), Mechanism: "dbus"})
	case <-time.After(toastCallTimeout + 100*time.Millisecond):
		s.log.Error("desktop notification timed out, possible bus deadlock",
			logx.Duration("timeout", toastCallTimeout))
		s.gate.Trip("toast call timed out")
		s.publish(launchFailed, Outcome{Channel: "push", Platform: target.String(), Mechanism: "dbus", Detail: "timeout"})
	}
}

// pushWindows launches the toast script through powershell.exe. Title and
// message travel as literal argv entries, so no escaping is applied here.
func (s *Service) pushWindows(target platform.Target, title, message string) {
	scriptPath, err := s.assets.ToastScriptPath()
	if err != nil {
		s.log.Error("no toast script available", logx.Err(err))
		s.publish(skipped, Outcome{Channel: "push", Platform: target.String(), Detail: err.Error()})
		return
	}

	if target == platform.LinuxWSL2 {
		if translated, ok := s.roots.Translate(scriptPath); ok {
			scriptPath = translated
		}
	}

	err = s.run.Launch(procrun.Cmd{
		Name: "powershell.exe",
		Args: []string{
			"-NoProfile",
			"-ExecutionPolicy", "Bypass",
			"-File", scriptPath,
			"-Title", title,
			"-Message", message,
		},
	})
	if err != nil {
		s.log.Warn("toast script launch failed", logx.Err(err))
		s.publish(launchFailed, Outcome{Channel: "push", Platform: target.String(), Mechanism: "powershell-toast", Detail: err.Error()})
		return
	}
	s.publish(sent, Outcome{Channel: "push", Platform: target.String(), Mechanism: "powershell-toast"})
}
