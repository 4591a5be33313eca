//go:build ignore

package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/muurk/mcparam/internal/protocol"
)

// loggedFrame is the field set of a "Tuning message" debug log entry
type loggedFrame struct {
	Session   string `json:"session"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
	ID        uint32 `json:"id"`
	Length    int    `json:"length"`
	Param     string `json:"param"`
	HexDump   string `json:"hex_dump"`
}

// Statistics tracks decoding results
type Statistics struct {
	TotalFrames    int
	Truncated      int
	DecodeSuccess  int
	DecodeFailure  int
	MessageTypes   map[string]int
	FailedMessages []FailedMessage
}

// FailedMessage stores information about a frame that did not decode
type FailedMessage struct {
	LineNumber int
	Session    string
	HexDump    string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_frames <server-log>")
		fmt.Println("Example: MCPARAM_LOG_LEVEL=debug mcparam-server serve > server.log")
		fmt.Println("         go run tools/validate_frames.go server.log")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Printf("Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	stats := Statistics{MessageTypes: make(map[string]int)}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		processLine(lineNum, sc.Text(), &stats)
	}
	if err := sc.Err(); err != nil {
		fmt.Printf("Error reading log: %v\n", err)
		os.Exit(1)
	}

	printStatistics(&stats)
	if stats.DecodeFailure > 0 {
		os.Exit(1)
	}
}

// processLine decodes the frame carried by one console log line. The
// console encoder appends the structured fields as a JSON object.
func processLine(lineNum int, line string, stats *Statistics) {
	if !strings.Contains(line, "Tuning message") {
		return
	}
	start := strings.Index(line, "{")
	if start < 0 {
		return
	}

	var lf loggedFrame
	if err := json.Unmarshal([]byte(line[start:]), &lf); err != nil || lf.HexDump == "" {
		return
	}
	stats.TotalFrames++

	// Frames over 256 bytes are logged truncated
	if strings.HasSuffix(lf.HexDump, "...") {
		stats.Truncated++
		return
	}

	data, err := hex.DecodeString(lf.HexDump)
	if err != nil {
		stats.fail(lineNum, lf, fmt.Sprintf("hex decode error: %v", err))
		return
	}

	frame, msg, err := protocol.Decode(data)
	if err != nil {
		stats.fail(lineNum, lf, err.Error())
		return
	}
	if frame.MessageID != lf.ID {
		stats.fail(lineNum, lf, fmt.Sprintf("logged id %d, frame id %d", lf.ID, frame.MessageID))
		return
	}

	stats.DecodeSuccess++
	stats.MessageTypes[protocol.GetMessageTypeName(msg.Type())]++
}

func (s *Statistics) fail(lineNum int, lf loggedFrame, reason string) {
	s.DecodeFailure++
	s.FailedMessages = append(s.FailedMessages, FailedMessage{
		LineNumber: lineNum,
		Session:    lf.Session,
		HexDump:    lf.HexDump,
		Error:      reason,
	})
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("FRAME VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Frames Logged:      %d\n", stats.TotalFrames)
	fmt.Printf("Truncated:          %d\n", stats.Truncated)
	fmt.Printf("Decode Success:     %d\n", stats.DecodeSuccess)
	fmt.Printf("Decode Failure:     %d\n", stats.DecodeFailure)

	if stats.DecodeSuccess > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("MESSAGE TYPE DISTRIBUTION\n")
		fmt.Printf("----------------------------------------\n")
		names := make([]string, 0, len(stats.MessageTypes))
		for name := range stats.MessageTypes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			count := stats.MessageTypes[name]
			fmt.Printf("%-12s %6d (%.2f%%)\n", name, count, float64(count)/float64(stats.DecodeSuccess)*100)
		}
	}

	if len(stats.FailedMessages) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("DECODE FAILURES (%d total)\n", len(stats.FailedMessages))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		for i, failed := range stats.FailedMessages {
			if i >= maxShow {
				fmt.Printf("\n(%d more not shown)\n", len(stats.FailedMessages)-maxShow)
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  Line %d, session %s\n", failed.LineNumber, failed.Session)
			fmt.Printf("  Error: %s\n", failed.Error)
			preview := failed.HexDump
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("  Frame: %s\n", preview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.DecodeFailure == 0 {
		fmt.Printf("SUCCESS: every logged frame decoded\n")
	} else {
		fmt.Printf("ISSUES FOUND: %d frame(s) failed to decode\n", stats.DecodeFailure)
	}
	fmt.Printf("========================================\n")
}
