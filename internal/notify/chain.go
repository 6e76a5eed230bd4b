package notify

import (
	"taskchime/internal/platform"
	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

// mechanism is one entry of a fallback chain: a named external command.
// Success means the launch succeeded; the command's own outcome is never
// observed (fire-and-forget).
type mechanism struct {
	name string
	cmd  procrun.Cmd
}

// audioChain returns the ordered playback mechanisms for a platform. The
// chains are fixed policy, not configuration.
func audioChain(target platform.Target, soundPath string) []mechanism {
	switch target {
	case platform.MacOS:
		// Single native player, no fallback.
		return []mechanism{
			{name: "afplay", cmd: procrun.Cmd{Name: "afplay", Args: []string{soundPath}}},
		}
	case platform.LinuxNative:
		return []mechanism{
			{name: "paplay", cmd: procrun.Cmd{Name: "paplay", Args: []string{soundPath}}},
			{name: "aplay", cmd: procrun.Cmd{Name: "aplay", Args: []string{soundPath}}},
			// Last resort: ring the terminal bell so the user gets *some* signal.
			{name: "bell", cmd: procrun.Cmd{Name: "echo", Args: []string{"-e", "\\a"}}},
		}
	case platform.Windows, platform.LinuxWSL2:
		// PlaySync keeps the player process alive until playback ends;
		// we still only observe the launch.
		ps := `(New-Object Media.SoundPlayer "` + soundPath + `").PlaySync()`
		return []mechanism{
			{name: "powershell-soundplayer", cmd: procrun.Cmd{Name: "powershell.exe", Args: []string{"-c", ps}}},
		}
	default:
		return nil
	}
}

// runChain tries mechanisms in order until one launches. Every failure is
// swallowed: the chain's worst case is silence, never an error.
func (s *Service) runChain(channel string, target platform.Target, chain []mechanism) {
	for _, m := range chain {
		if err := s.run.Launch(m.cmd); err != nil {
			s.log.Debug("mechanism launch failed, trying next",
				logx.String("channel", channel),
				logx.String("mechanism", m.name),
				logx.Err(err))
			s.publish(launchFailed, Outcome{Channel: channel, Platform: target.String(), Mechanism: m.name, Detail: err.Error()})
			continue
		}
		s.log.Debug("mechanism launched",
			logx.String("channel", channel),
			logx.String("mechanism", m.name))
		s.publish(sent, Outcome{Channel: channel, Platform: target.String(), Mechanism: m.name})
		return
	}
	s.log.Warn("all mechanisms failed to launch", logx.String("channel", channel))
	s.publish(skipped, Outcome{Channel: channel, Platform: target.String(), Detail: "chain exhausted"})
}
