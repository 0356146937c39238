package model

import "bytes"

// encoding/json rejects the NaN/Infinity tokens, so before decoding they are
// rewritten as strings starting with the private-use rune U+E000, which no
// real payload carries.
const (
	nonFiniteNaN    = "\ue000NaN"
	nonFiniteInf    = "\ue000Infinity"
	nonFiniteNegInf = "\ue000-Infinity"
)

var nonFiniteTokens = []struct {
	token  string
	quoted string
}{
	// -Infinity before Infinity so the sign is consumed with it
	{tokenNegInf, `"` + nonFiniteNegInf + `"`},
	{tokenInf, `"` + nonFiniteInf + `"`},
	{tokenNaN, `"` + nonFiniteNaN + `"`},
}

// quoteNonFinite replaces bare NaN, Infinity and -Infinity tokens outside
// strings with their quoted marker form
func quoteNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte(tokenNaN)) && !bytes.Contains(data, []byte(tokenInf)) {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(data) {
					i++
					out = append(out, data[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}

		matched := false
		for _, nf := range nonFiniteTokens {
			if bytes.HasPrefix(data[i:], []byte(nf.token)) {
				out = append(out, nf.quoted...)
				i += len(nf.token) - 1
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, c)
		}
	}
	return out
}

// unquoteNonFinite restores the bare tokens in a raw value kept verbatim
func unquoteNonFinite(raw []byte) []byte {
	out := append([]byte(nil), raw...)
	for _, nf := range nonFiniteTokens {
		out = bytes.ReplaceAll(out, []byte(nf.quoted), []byte(nf.token))
	}
	return out
}
