package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls pager behavior
type PagerOptions struct {
	// NoPager disables pager for this command (--no-pager flag)
	NoPager bool
}

// ToPager writes content to w, through a pager when w is a terminal and the
// content is taller than the screen. MJ_NO_PAGER or opts.NoPager turn paging
// off. The pager's output goes to w.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	argv := pagerArgv(w, content, opts)
	if argv == nil {
		_, err := fmt.Fprint(w, content)
		return err
	}
	return runPager(w, argv, content)
}

// pagerArgv returns the pager command line, or nil to write w directly.
func pagerArgv(w io.Writer, content string, opts PagerOptions) []string {
	if opts.NoPager || os.Getenv("MJ_NO_PAGER") != "" {
		return nil
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	if _, height, err := term.GetSize(int(f.Fd())); err == nil && height > 0 && lineCount(content) < height {
		return nil
	}
	argv := strings.Fields(pagerCommand())
	if len(argv) == 0 {
		return nil
	}
	return argv
}

// pagerCommand checks MJ_PAGER, then PAGER, defaults to "less".
func pagerCommand() string {
	for _, env := range []string{"MJ_PAGER", "PAGER"} {
		if pager := os.Getenv(env); pager != "" {
			return pager
		}
	}
	return "less"
}

func runPager(w io.Writer, argv []string, content string) error {
	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 - pager command is user-configurable
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	// -R keeps colors, -F quits on one screen, -X leaves the screen alone.
	if os.Getenv("LESS") == "" {
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	return cmd.Run()
}

func lineCount(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}
