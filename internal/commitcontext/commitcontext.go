// Package commitcontext computes the deterministic commitment hash spec.md
// 4.1 and 4.3 require: every participant — coordinator and signer alike —
// must derive the identical hash from the same round-1 package set so the
// HPKE info string it feeds into binds sender and recipient to the same
// session context. Living in its own package keeps the coordinator and
// signerapp implementations from silently drifting apart.
package commitcontext

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// Hash returns the hex SHA-256 over the deterministic concatenation of
// participant ids and raw round-1 package bytes (as transported, i.e. the
// base64 text), sorted by id.
func Hash(round1 map[uint16]string) string {
	ids := make([]uint16, 0, len(round1))
	for id := range round1 {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := sha256.New()
	for _, id := range ids {
		var idBuf [2]byte
		binary.BigEndian.PutUint16(idBuf[:], id)
		h.Write(idBuf[:])
		h.Write([]byte(round1[id]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Info builds the HPKE info string spec.md 4.3 defines for sealing a
// round-2 share: "frost-dkg-round2|" + session_id + sender + recipient +
// hex(commitment hash), pipe-delimited.
func Info(sessionID string, senderID, recipientID uint16, commitmentHashHex string) []byte {
	return []byte("frost-dkg-round2|" + sessionID + "|" + uint16Str(senderID) + "|" + uint16Str(recipientID) + "|" + commitmentHashHex)
}

func uint16Str(v uint16) string {
	const digits = "0123456789"
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v%10]
		v /= 10
	}
	return string(buf[i:])
}
