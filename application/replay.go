package application

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// ReplayResult counts the outcome of a replayed command log
type ReplayResult struct {
	Applied  int
	Rejected int
}

// Replay applies a newline-delimited command log in order. Blank lines and
// lines starting with '#' are skipped. It stops at the first malformed line
// or fatal error.
func Replay(ctx context.Context, processor *CommandProcessor, r io.Reader) (ReplayResult, error) {
	var result ReplayResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}

		cmd, err := DecodeCommand(data)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}

		if err := processor.Apply(ctx, cmd); err != nil {
			if IsFatal(err) {
				return result, fmt.Errorf("line %d: %w", line, err)
			}
			result.Rejected++
			log.WithFields(log.Fields{
				"line":    line,
				"command": cmd.CommandType(),
				"error":   err,
			}).Info("Replayed command rejected")
			continue
		}
		result.Applied++
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read command log: %w", err)
	}
	return result, nil
}
