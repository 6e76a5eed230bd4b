package assets

import _ "embed"

// toastScript raises a Windows toast via the WinRT notification API, with a
// message-box fallback for hosts where the toast API is unavailable.
//
//go:embed toast.ps1
var toastScript []byte
