package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// REPL is the interactive shell for a Debugger: break <n>, step, continue,
// print <cell>, info, quit.
type REPL struct {
	d       *Debugger
	reader  *bufio.Reader
	writer  io.Writer
	running bool
}

// NewREPL builds a REPL reading commands from r and writing output to w.
func NewREPL(d *Debugger, r io.Reader, w io.Writer) *REPL {
	return &REPL{d: d, reader: bufio.NewReader(r), writer: w}
}

// Start runs the REPL loop until "quit" or EOF.
func (rp *REPL) Start() {
	rp.running = true
	rp.printf("gembiler debugger - type 'help' for commands\n")

	for rp.running {
		rp.printPrompt()
		line, err := rp.reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			if cmdErr := rp.execute(line); cmdErr != nil {
				rp.printf("error: %v\n", cmdErr)
			}
		}
		if err != nil {
			rp.running = false
		}
	}
}

func (rp *REPL) printPrompt() {
	state := "running"
	if rp.d.Finished() {
		state = "halted"
	} else if rp.d.IsPaused() {
		state = "paused"
	}
	rp.printf("(%s) > ", state)
}

func (rp *REPL) printf(format string, args ...interface{}) {
	fmt.Fprintf(rp.writer, format, args...)
}

func (rp *REPL) execute(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help":
		rp.printf("commands: break <n>, clear <n>, step, continue, print <cell>, info, quit\n")
	case "break":
		loc, err := parseArg(args)
		if err != nil {
			return err
		}
		id := rp.d.SetBreakpoint(loc)
		rp.printf("breakpoint %d at instruction %d\n", id, loc)
	case "clear":
		loc, err := parseArg(args)
		if err != nil {
			return err
		}
		rp.d.ClearBreakpoint(loc)
	case "step":
		if err := rp.d.Step(); err != nil {
			return err
		}
		rp.printStatus()
	case "continue":
		if err := rp.d.Continue(); err != nil {
			return err
		}
		rp.printStatus()
	case "print":
		loc, err := parseArg(args)
		if err != nil {
			return err
		}
		v, ok := rp.d.PeekCell(uint64(loc))
		if !ok {
			rp.printf("cell %d is uninitialized\n", loc)
			return nil
		}
		rp.printf("cell %d = %d\n", loc, v)
	case "info":
		rp.printStatus()
	case "quit", "exit":
		rp.running = false
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (rp *REPL) printStatus() {
	s := rp.d.Snapshot()
	rp.printf("ip=%d steps=%d acc=%d halted=%t\n", s.IP, s.Steps, s.Acc, s.Halted)
}

func parseArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one integer argument")
	}
	return strconv.ParseInt(args[0], 10, 64)
}
