package notify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

// rootCache resolves and caches the Windows-side root under which the
// current unix filesystem is visible to powershell.exe (the WSL interop
// mount, e.g. `\\wsl.localhost\Ubuntu`).
//
// The slot is written at most logically once: concurrent first callers may
// each run the probe, but all converge on whichever result lands first.
// A failed lookup is cached just as permanently as a successful one.
type rootCache struct {
	slot atomic.Pointer[rootResult]

	run procrun.Launcher
	log logx.Logger
}

type rootResult struct {
	root string
	ok   bool
}

func newRootCache(run procrun.Launcher, log logx.Logger) *rootCache {
	return &rootCache{run: run, log: log}
}

// Translate rewrites a local path into the syntax powershell.exe understands.
//
// Relative paths pass through untouched (the foreign shell resolves them
// against its own cwd). Absolute paths become root+path by plain string
// concatenation; PowerShell accepts forward slashes so no separator
// normalization is done. ok=false means root resolution has permanently
// failed and the caller should fall back to the untranslated string.
func (c *rootCache) Translate(path string) (string, bool) {
	if !strings.HasPrefix(path, "/") {
		c.log.Debug("using relative path as-is", logx.String("path", path))
		return path, true
	}
	root, ok := c.get()
	if !ok {
		c.log.Error("no foreign root available for path translation", logx.String("path", path))
		return "", false
	}
	out := root + path
	c.log.Debug("path translated", logx.String("from", path), logx.String("to", out))
	return out, true
}

func (c *rootCache) get() (string, bool) {
	if v := c.slot.Load(); v != nil {
		return v.root, v.ok
	}

	res := &rootResult{}
	if root, err := c.resolve(); err != nil {
		c.log.Error("foreign root resolution failed", logx.Err(err))
	} else {
		res.root, res.ok = root, true
		c.log.Info("foreign root detected", logx.String("root", root))
	}

	// First writer wins; losers adopt the stored value.
	if !c.slot.CompareAndSwap(nil, res) {
		v := c.slot.Load()
		return v.root, v.ok
	}
	return res.root, res.ok
}

// resolve asks powershell.exe for its own working-directory identity while
// chdir'd to the unix root. The answer is the interop mount prefix.
func (c *rootCache) resolve() (string, error) {
	out, err := c.run.Output(context.Background(), rootResolveTimeout, procrun.Cmd{
		Name: "powershell.exe",
		Args: []string{"-c", "(Get-Location).Path -replace '^.*::', ''"},
		Dir:  "/",
	})
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", errors.New("foreign shell output is not valid UTF-8")
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", errors.New("foreign shell returned an empty working directory")
	}
	return root, nil
}
