// Command padbreak decrypts a CBC ciphertext through an external padding
// oracle, without any key material.
//
// The oracle is the trailing command line: it is spawned once per ciphertext
// block, receives one Base64-encoded test ciphertext per stdin line, and
// must answer "yes" or "no" per stdout line depending on whether the
// decryption carries valid PKCS#7 padding.
//
// Example:
//
//	padbreak -c 101112...1f9a0b... -- ./oracle.sh --target staging
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alesforz/padbreak"
	"github.com/alesforz/padbreak/pbchars"
	"github.com/alesforz/padbreak/pbmsg"
	"github.com/alesforz/padbreak/pboracle"
)

func main() {
	var (
		cipherHex = flag.String("c", "", "target ciphertext, hex encoded (required)")
		blockSize = flag.Int("s", 16, "CBC block size")
		charsPath = flag.String("chars", "english.chars", "file with all 256 byte values as hex tokens, most likely first")
		noIV      = flag.Bool("noiv", false, "first block is data, not the IV; the first recovered block stays XORed with the unknown IV")
		outPath   = flag.String("out", "", "write the concatenated recovered plaintext to this file")
		logPath   = flag.String("log", "", "append JSON logs to this file instead of the console")
		verbose   = flag.Bool("v", false, "debug logging")
		trace     = flag.Bool("vv", false, "trace logging (per-query oracle timings)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [flags] -c <hex cipher> -- <oracle command> [oracle args...]\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	initLogging(*logPath, *verbose, *trace)

	if *cipherHex == "" {
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		log.Fatal().Msg("no oracle command given")
	}

	cipher, err := hex.DecodeString(*cipherHex)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing hex cipher")
	}

	charset, err := pbchars.Load(*charsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading charset")
	}

	spec := pboracle.CmdSpec{
		Command: flag.Arg(0),
		Args:    flag.Args()[1:],
	}

	results, err := padbreak.Decrypt(
		cipher, *blockSize, spec, progressLogger, charset, !*noIV)
	if err != nil {
		log.Fatal().Err(err).Msg("decrypt")
	}

	if report(results, *blockSize, *outPath) {
		os.Exit(1)
	}
}

// initLogging wires the global zerolog logger: human console on stderr by
// default, JSON appended to a file with -log.
func initLogging(logPath string, verbose, trace bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if trace {
		level = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(level)

	if logPath == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %s\n", err)
		os.Exit(2)
	}
	log.Logger = log.Output(f)
}

// progressLogger is the progress sink: solved bytes at debug level, payload
// churn at trace. zerolog handles the concurrent calls.
func progressLogger(m pbmsg.Message) {
	switch e := m.(type) {
	case pbmsg.Payload:
		log.Trace().Int("block", e.Block).Int("index", e.Index).
			Hex("payload", e.Bytes).Msg("trying")
	case pbmsg.Intermediate:
		log.Debug().Int("block", e.Block).Int("index", e.Index).
			Hex("intermediate", e.Bytes).Msg("intermediate byte solved")
	case pbmsg.Plain:
		log.Debug().Int("block", e.Block).Int("index", e.Index).
			Str("plain", printable(e.Bytes)).Msg("plaintext byte solved")
	case pbmsg.Done:
		log.Info().Msg("all blocks finished")
	}
}

// report prints per-block outcomes to stdout, optionally writes the full
// plaintext, and returns whether any block failed.
func report(results []padbreak.BlockResult, blockSize int, outPath string) (failed bool) {
	plain := make([]byte, 0, len(results)*blockSize)

	for k, res := range results {
		if res.Err != nil {
			failed = true
			log.Error().Err(res.Err).Int("block", k).Msg("block failed")
			fmt.Printf("block %d: FAILED (%s)\n", k, res.Err)
			continue
		}

		fmt.Printf("block %d: intermediate=%s plain=%s\n",
			k, hex.EncodeToString(res.Intermediate), strconv.Quote(string(res.Plain)))
		plain = append(plain, res.Plain...)
	}

	if outPath != "" && !failed {
		if err := os.WriteFile(outPath, plain, 0o644); err != nil {
			log.Error().Err(err).Msg("writing plaintext file")
			return true
		}
		log.Info().Str("file", outPath).Msg("plaintext written")
	}

	return failed
}

// printable renders recovered bytes for log output, dotting out the
// non-printable ones.
func printable(bb []byte) string {
	var sb strings.Builder
	for _, b := range bb {
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
