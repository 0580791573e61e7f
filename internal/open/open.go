package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/edl-session-search/internal/index"
)

// OpenSession opens the export behind sessionKey in $EDITOR, at the source
// line of entryID when it is not negative.
func OpenSession(db *index.DB, sessionKey string, entryID int) error {
	session, err := db.GetSessionByKey(sessionKey)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session not found: %s", sessionKey)
	}

	// find line number for the hit entry
	lineNum := 1
	if entryID >= 0 {
		e, err := db.GetEntry(sessionKey, entryID)
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		if e != nil && e.LineNumber > 0 {
			lineNum = e.LineNumber
		}
	}

	return OpenFile(session.FilePath, lineNum)
}

// OpenFile opens filePath in $EDITOR (less when unset) at lineNum.
func OpenFile(filePath string, lineNum int) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	args := editorArgs(os.Getenv("EDITOR"), filePath, lineNum)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// editorArgs builds the command line for editor, which may carry its own
// flags ("code --wait"). The line flag is chosen by the binary's base name.
func editorArgs(editor, filePath string, lineNum int) []string {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"less"}
	}
	args := slices.Clone(fields)
	line := strconv.Itoa(lineNum)

	switch filepath.Base(fields[0]) {
	case "vi", "vim", "nvim", "less", "nano", "emacs", "emacsclient", "micro", "kak":
		return append(args, "+"+line, filePath)
	case "code", "code-insiders", "codium":
		return append(args, "--goto", filePath+":"+line)
	case "subl", "zed", "hx":
		return append(args, filePath+":"+line)
	default:
		return append(args, filePath)
	}
}
