// Package pboracle runs the external padding oracle as a long-lived
// co-process. Spawning a process per query would dominate the attack's cost
// (a full decrypt makes on the order of blockSize*256 queries per block), so
// each worker keeps one child alive and talks to it over its pipes: one
// Base64 line in, one yes/no line out.
package pboracle

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CmdSpec describes how to launch the oracle program. The command is run
// with exactly these arguments; the payload travels over stdin, never argv.
type CmdSpec struct {
	Command string
	Args    []string
}

// Spawn launches the oracle child and returns a handle to it. The caller
// owns the handle and must Close it on every exit path, or the child leaks.
func (s CmdSpec) Spawn() (*Oracle, error) {
	return newOracle(s)
}

// ProtocolError reports an oracle reply that is neither "yes" nor "no".
// A worker that sees one must stop using its oracle: the conversation is
// out of sync.
type ProtocolError struct {
	Reply string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid oracle reply %q, choices are: yes/no", e.Reply)
}

// Oracle is a handle to one running oracle child. It is single-threaded:
// one outstanding request at a time, synchronous read after write. Workers
// that want oracle parallelism spawn one Oracle each.
type Oracle struct {
	cmd    *exec.Cmd
	writer *bufio.Writer
	reader *bufio.Reader
}

func newOracle(spec CmdSpec) (*Oracle, error) {
	cmd := exec.Command(spec.Command, spec.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "piping oracle stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "piping oracle stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "piping oracle stderr")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting oracle %q", spec.Command)
	}

	go drainStderr(stderr)

	o := Oracle{
		cmd:    cmd,
		writer: bufio.NewWriter(stdin),
		reader: bufio.NewReader(stdout),
	}
	return &o, nil
}

// drainStderr forwards each stderr line of the child to the error log, so
// that a misbehaving oracle leaves a trace. It exits when the child's stderr
// pipe closes.
func drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		log.Error().Str("stream", "stderr").Msg("oracle: " + scanner.Text())
	}
	log.Debug().Msg("oracle stderr drain exit")
}

// Query asks the oracle whether the given test ciphertext decrypts to a
// validly padded plaintext. The payload is sent Base64-encoded on one line;
// the reply must be the literal "yes" or "no".
// Query returns an I/O error if the conversation breaks (child exited, pipe
// closed) and a *ProtocolError for any other reply.
func (o *Oracle) Query(payload []byte) (bool, error) {
	start := time.Now()

	if _, err := o.writer.WriteString(base64.StdEncoding.EncodeToString(payload)); err != nil {
		return false, errors.Wrap(err, "writing oracle request")
	}
	if err := o.writer.WriteByte('\n'); err != nil {
		return false, errors.Wrap(err, "writing oracle request")
	}
	if err := o.writer.Flush(); err != nil {
		return false, errors.Wrap(err, "flushing oracle request")
	}

	line, err := o.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return false, errors.Wrap(err, "reading oracle reply")
	}

	log.Trace().Dur("took", time.Since(start)).Msg("oracle round-trip")

	switch strings.TrimSpace(line) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, &ProtocolError{Reply: strings.TrimSpace(line)}
	}
}

// Close kills the oracle child and reaps it. Errors are swallowed: by the
// time a worker is done with its oracle there is nothing useful left to do
// with them. Close is safe to call on every exit path, including after a
// Query error.
func (o *Oracle) Close() {
	if o.cmd.Process != nil {
		_ = o.cmd.Process.Kill()
	}
	_ = o.cmd.Wait()
}
