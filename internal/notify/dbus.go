package notify

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// toastExpireMS is handed to the notification daemon; most honor it.
const toastExpireMS = 10000

// dbusToast delivers a desktop notification straight over the session bus
// (org.freedesktop.Notifications). Using the bus directly, rather than
// shelling out to notify-send, keeps failures typed and lets the caller's
// deadline apply to the method call.
func dbusToast(ctx context.Context, title, message string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return err
	}

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		"taskchime", // app name
		uint32(0),   // no notification to replace
		"",          // no icon
		title,
		message,
		[]string{},                // no actions
		map[string]dbus.Variant{}, // no hints
		int32(toastExpireMS),
	)
	return call.Err
}
