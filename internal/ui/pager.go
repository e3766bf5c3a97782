package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls Page.
type PagerOptions struct {
	// NoPager writes straight through (--no-pager).
	NoPager bool
}

// Page writes content to w. When w is a terminal and content is taller
// than the screen, content goes through $RL_PAGER, $PAGER or less.
// RL_NO_PAGER disables paging like NoPager.
func Page(w io.Writer, content string, opts PagerOptions) error {
	argv, ok := pagerFor(w, content, opts)
	if !ok {
		_, err := io.WriteString(w, content)
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 -- user-chosen pager
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if _, set := os.LookupEnv("LESS"); !set {
		// Keep colors, exit when it fits, leave the text on screen.
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pager %s: %w", argv[0], err)
	}
	return nil
}

// pagerFor returns the pager command line, or false when content should
// be written directly.
func pagerFor(w io.Writer, content string, opts PagerOptions) ([]string, bool) {
	if opts.NoPager || os.Getenv("RL_NO_PAGER") != "" {
		return nil, false
	}
	fd, tty := terminalFd(w)
	if !tty {
		return nil, false
	}
	if _, height, err := term.GetSize(fd); err == nil && height > 0 && countLines(content) < height {
		return nil, false
	}
	for _, key := range []string{"RL_PAGER", "PAGER"} {
		if argv := strings.Fields(os.Getenv(key)); len(argv) > 0 {
			return argv, true
		}
	}
	return []string{"less"}, true
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
