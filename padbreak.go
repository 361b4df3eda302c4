// Package padbreak decrypts CBC ciphertexts through a padding oracle: an
// external program that answers whether a candidate ciphertext decrypts to
// a validly padded plaintext. No key material is needed; the attack
// recovers, per block, both the plaintext and the intermediate state (the
// block-cipher output before the XOR with the previous ciphertext block).
//
// Each ciphertext block is attacked by its own worker, and each worker owns
// a private long-lived oracle subprocess, so blocks decrypt in parallel.
// Workers share a byte-scoring heuristic that learns which plaintext bytes
// are common, which typically cuts the expected oracle calls per byte from
// 128 to around 10 on natural-language plaintext.
package padbreak

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alesforz/padbreak/pbbytes"
	"github.com/alesforz/padbreak/pbmsg"
	"github.com/alesforz/padbreak/pboracle"
	"github.com/alesforz/padbreak/pbprio"
)

// BlockResult holds the outcome for one recovered ciphertext block: either
// the intermediate and plaintext bytes, or the error that stopped the
// block's worker. For every solved position i,
// Plain[i] == Intermediate[i] XOR prevBlock[i].
type BlockResult struct {
	Intermediate []byte
	Plain        []byte
	Err          error
}

// Decrypt mounts the padding-oracle attack against the given ciphertext.
//
// The ciphertext length must be a positive multiple of blockSize (1..255).
// With hasIV, the first block is the IV and the remaining N-1 blocks are
// recovered. Without it, a synthetic all-zero block is prepended and all N
// blocks are recovered against it; the first block's plaintext then comes
// back XORed with the real (unknown) IV, which the caller must undo.
//
// Each block's worker spawns its own oracle child from spec and keeps it
// alive for the whole block; the child is killed when the worker finishes.
// Progress events stream into prog from all workers concurrently, ending
// with exactly one Done after the last worker has joined.
//
// charset seeds the byte-guessing order, most likely byte first. It must be
// a permutation of all 256 byte values (the pbchars loader enforces this).
//
// A block failing does not stop its siblings: the returned slice always has
// one entry per recoverable block, in block order, each independently a
// success or an error (oracle I/O, oracle protocol violation, or ErrTries).
// The returned error is non-nil only for invalid arguments, detected before
// any oracle child is spawned.
func Decrypt(
	cipher []byte,
	blockSize int,
	spec pboracle.CmdSpec,
	prog pbmsg.Sink,
	charset [256]byte,
	hasIV bool,
) ([]BlockResult, error) {

	if blockSize < 1 || blockSize > 255 {
		return nil, fmt.Errorf("invalid block size: %d", blockSize)
	}

	blocks, err := pbbytes.ToChunks(cipher, blockSize)
	if err != nil {
		return nil, fmt.Errorf("slicing cipher: %s", err)
	}

	origBlocks := len(blocks)
	if hasIV && origBlocks < 2 {
		return nil, fmt.Errorf("cipher is only the IV: need at least 2 blocks, got %d", origBlocks)
	}
	if !hasIV {
		// decrypt the first real block against a fake zero IV
		zeroIV := make([]byte, blockSize)
		blocks = append([][]byte{zeroIV}, blocks...)
	}

	// Exactly one block gets the end-of-message padding shortcut: the last
	// one, except that a two-block ciphertext with an IV is a single-block
	// payload which may not carry padding at all.
	finalIdx := -1
	if !hasIV || origBlocks > 2 {
		finalIdx = len(blocks) - 1
	}

	var (
		chars   = pbprio.New(charset)
		results = make([]BlockResult, len(blocks)-1)
		workers errgroup.Group
	)
	for k := 1; k < len(blocks); k++ {
		workers.Go(func() error {
			// block failures are data, not worker failures
			results[k-1] = runWorker(blocks[k], blocks[k-1], spec, chars, prog, k-1, k == finalIdx)
			return nil
		})
	}

	// With no group errors possible, Wait is purely the join barrier that
	// keeps blocks, chars and results alive for every worker.
	_ = workers.Wait()

	prog(pbmsg.Done{})

	return results, nil
}

// runWorker drives one block: spawn a private oracle child, attack the
// block, and kill the child on the way out whatever happened.
func runWorker(
	blk, prev []byte,
	spec pboracle.CmdSpec,
	chars *pbprio.Queue,
	prog pbmsg.Sink,
	block int,
	isFinal bool,
) BlockResult {

	orc, err := spec.Spawn()
	if err != nil {
		return BlockResult{Err: err}
	}
	defer orc.Close()

	intermediate, plain, err := decryptBlock(blk, prev, orc, chars, prog, block, isFinal)
	if err != nil {
		return BlockResult{Err: err}
	}

	return BlockResult{Intermediate: intermediate, Plain: plain}
}
