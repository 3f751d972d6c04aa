// Package sniff maps leading payload bytes to a file extension.
package sniff

import "bytes"

// Generic is the extension for payloads no signature matches.
const Generic = ".bin"

// minSniffLen is the shortest payload that is matched against signatures.
const minSniffLen = 4

// Signature binds a leading byte pattern to an extension.
type Signature struct {
	Magic     []byte
	Extension string
}

// signatures is ordered: the first match wins, so short or overlapping
// patterns must follow the longer ones they could shadow.
var signatures = []Signature{
	{[]byte("SARC"), ".sarc"},
	{[]byte("Yaz0"), ".szs"},
	{[]byte{0x28, 0xB5, 0x2F, 0xFD}, ".zs"},
	{[]byte("FRES"), ".bfres"},
	{[]byte("Gfx2"), ".gtx"},
	{[]byte("FLYT"), ".bflyt"},
	{[]byte("CLAN"), ".bclan"},
	{[]byte("CLYT"), ".bclyt"},
	{[]byte("FLIM"), ".bclim"},
	{[]byte("FLAN"), ".bflan"},
	{[]byte("FSEQ"), ".bfseq"},
	{[]byte("VFXB"), ".pctl"},
	{[]byte("AAHS"), ".sharc"},
	{[]byte("BAHS"), ".sharcb"},
	{[]byte("BNTX"), ".bntx"},
	{[]byte("BNSH"), ".bnsh"},
	{[]byte("FSHA"), ".bfsha"},
	{[]byte("FFNT"), ".bffnt"},
	{[]byte("CFNT"), ".bcfnt"},
	{[]byte("CSTM"), ".bcstm"},
	{[]byte("FSTM"), ".bfstm"},
	{[]byte("CWAV"), ".bcwav"},
	{[]byte("FWAV"), ".bfwav"},
	{[]byte("CTPK"), ".ctpk"},
	{[]byte("CGFX"), ".bcres"},
	{[]byte("AAMP"), ".aamp"},
	{[]byte("MsgS"), ".msbt"},
	{[]byte("MsgP"), ".msbp"},
	{[]byte{0x89, 'P', 'N', 'G'}, ".png"},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, ".jpg"},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE1}, ".jpg"},
	{[]byte("YB"), ".byaml"},
	{[]byte("BY"), ".byaml"},
}

// Extension returns the extension, including the leading dot, for payload.
//
// Payloads shorter than four bytes, and payloads no signature matches,
// yield Generic. Extension only inspects the leading bytes.
func Extension(payload []byte) string {
	if len(payload) < minSniffLen {
		return Generic
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(payload, sig.Magic) {
			return sig.Extension
		}
	}
	return Generic
}

// Magic returns up to the first four bytes of payload.
func Magic(payload []byte) []byte {
	return payload[:min(len(payload), minSniffLen)]
}
