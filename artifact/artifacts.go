// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package artifact

import (
	"github.com/sequentech/braid/types"
)

// CiphertextBytes is the canonical wire form of an ElGamal ciphertext:
// two marshaled group elements.
type CiphertextBytes struct {
	C1 []byte
	C2 []byte
}

func writeCiphertexts(w *Writer, cs []CiphertextBytes) {
	w.WriteUint32(uint32(len(cs)))
	for _, c := range cs {
		w.WriteBytes(c.C1)
		w.WriteBytes(c.C2)
	}
}

func readCiphertexts(r *Reader) ([]CiphertextBytes, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]CiphertextBytes, n)
	for i := range out {
		c1, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		c2, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		out[i] = CiphertextBytes{C1: c1, C2: c2}
	}
	return out, nil
}

// ShuffleProofBytes is the canonical wire form of a crypto/shuffle.Proof.
type ShuffleProofBytes struct {
	Commitments [][]byte
	R           []byte
	RPrime      []byte
	U           [][]byte
}

func writeShuffleProof(w *Writer, p ShuffleProofBytes) {
	w.WriteBytesVector(p.Commitments)
	w.WriteBytes(p.R)
	w.WriteBytes(p.RPrime)
	w.WriteBytesVector(p.U)
}

func readShuffleProof(r *Reader) (ShuffleProofBytes, error) {
	var p ShuffleProofBytes
	var err error
	if p.Commitments, err = r.ReadBytesVector(); err != nil {
		return p, err
	}
	if p.R, err = r.ReadBytes(); err != nil {
		return p, err
	}
	if p.RPrime, err = r.ReadBytes(); err != nil {
		return p, err
	}
	if p.U, err = r.ReadBytesVector(); err != nil {
		return p, err
	}
	return p, nil
}

// DleqProofBytes is the canonical wire form of a crypto/dleq.Proof.
type DleqProofBytes struct {
	VG []byte
	VH []byte
	C  []byte
	R  []byte
}

func writeDleqProof(w *Writer, p DleqProofBytes) {
	w.WriteBytes(p.VG)
	w.WriteBytes(p.VH)
	w.WriteBytes(p.C)
	w.WriteBytes(p.R)
}

func readDleqProof(r *Reader) (DleqProofBytes, error) {
	var p DleqProofBytes
	var err error
	if p.VG, err = r.ReadBytes(); err != nil {
		return p, err
	}
	if p.VH, err = r.ReadBytes(); err != nil {
		return p, err
	}
	if p.C, err = r.ReadBytes(); err != nil {
		return p, err
	}
	if p.R, err = r.ReadBytes(); err != nil {
		return p, err
	}
	return p, nil
}

// Configuration is the canonical wire form of types.Configuration.
type Configuration struct {
	ManagerKey  []byte
	TrusteeKeys [][]byte
	Threshold   int
	Group       types.GroupID
}

func FromConfiguration(c types.Configuration) Configuration {
	return Configuration{ManagerKey: c.ManagerKey, TrusteeKeys: c.TrusteeKeys, Threshold: c.Threshold, Group: c.Group}
}

func (c Configuration) ToTypes() types.Configuration {
	return types.Configuration{ManagerKey: c.ManagerKey, TrusteeKeys: c.TrusteeKeys, Threshold: c.Threshold, Group: c.Group}
}

func (c Configuration) Encode() []byte {
	w := NewWriter()
	w.WriteBytes(c.ManagerKey)
	w.WriteBytesVector(c.TrusteeKeys)
	w.WriteUint32(uint32(c.Threshold))
	w.WriteBytes([]byte(c.Group))
	return w.Bytes()
}

func DecodeConfiguration(b []byte) (Configuration, error) {
	var c Configuration
	r := NewReader(b)
	var err error
	if c.ManagerKey, err = r.ReadBytes(); err != nil {
		return c, err
	}
	if c.TrusteeKeys, err = r.ReadBytesVector(); err != nil {
		return c, err
	}
	t, err := r.ReadUint32()
	if err != nil {
		return c, err
	}
	c.Threshold = int(t)
	g, err := r.ReadBytes()
	if err != nil {
		return c, err
	}
	c.Group = types.GroupID(g)
	return c, nil
}

// Hash returns the canonical identifier of c, the instance id threaded
// through every predicate.
func (c Configuration) Hash() types.Hash { return Hash(c.Encode()) }

// Channel is the canonical wire form of a DKG side-channel artifact
// (spec.md §3 "Channel").
type Channel struct {
	Public          []byte
	ProofCommitment []byte
	ProofResponse   []byte
	EncryptedSecret []byte
}

func (c Channel) Encode() []byte {
	w := NewWriter()
	w.WriteBytes(c.Public)
	w.WriteBytes(c.ProofCommitment)
	w.WriteBytes(c.ProofResponse)
	w.WriteBytes(c.EncryptedSecret)
	return w.Bytes()
}

func DecodeChannel(b []byte) (Channel, error) {
	var c Channel
	r := NewReader(b)
	var err error
	if c.Public, err = r.ReadBytes(); err != nil {
		return c, err
	}
	if c.ProofCommitment, err = r.ReadBytes(); err != nil {
		return c, err
	}
	if c.ProofResponse, err = r.ReadBytes(); err != nil {
		return c, err
	}
	if c.EncryptedSecret, err = r.ReadBytes(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Channel) Hash() types.Hash { return Hash(c.Encode()) }

// Shares is the canonical wire form of one dealer's Shares artifact
// (spec.md §3 "Shares"): T coefficient commitments and N encrypted
// per-recipient shares.
type Shares struct {
	Commitments      [][]byte
	ShareCiphertexts [][]byte // ECIES ciphertexts, index = recipient position
}

func (s Shares) Encode() []byte {
	w := NewWriter()
	w.WriteBytesVector(s.Commitments)
	w.WriteBytesVector(s.ShareCiphertexts)
	return w.Bytes()
}

func DecodeShares(b []byte) (Shares, error) {
	var s Shares
	r := NewReader(b)
	var err error
	if s.Commitments, err = r.ReadBytesVector(); err != nil {
		return s, err
	}
	if s.ShareCiphertexts, err = r.ReadBytesVector(); err != nil {
		return s, err
	}
	return s, nil
}

func (s Shares) Hash() types.Hash { return Hash(s.Encode()) }

// DkgPublicKey is the canonical wire form of the joint public key
// artifact (spec.md §3 "DkgPublicKey").
type DkgPublicKey struct {
	PublicKey        []byte
	VerificationKeys [][]byte
	SharesHashes     []types.Hash
	ChannelHashes    []types.Hash
}

func (k DkgPublicKey) Encode() []byte {
	w := NewWriter()
	w.WriteBytes(k.PublicKey)
	w.WriteBytesVector(k.VerificationKeys)
	w.WriteHashVector(k.SharesHashes)
	w.WriteHashVector(k.ChannelHashes)
	return w.Bytes()
}

func DecodeDkgPublicKey(b []byte) (DkgPublicKey, error) {
	var k DkgPublicKey
	r := NewReader(b)
	var err error
	if k.PublicKey, err = r.ReadBytes(); err != nil {
		return k, err
	}
	if k.VerificationKeys, err = r.ReadBytesVector(); err != nil {
		return k, err
	}
	if k.SharesHashes, err = r.ReadHashVector(); err != nil {
		return k, err
	}
	if k.ChannelHashes, err = r.ReadHashVector(); err != nil {
		return k, err
	}
	return k, nil
}

func (k DkgPublicKey) Hash() types.Hash { return Hash(k.Encode()) }

// Ballots is the canonical wire form of a submitted ciphertext batch
// (spec.md §3 "Ballots").
type Ballots struct {
	Batch         int64
	Ciphertexts   []CiphertextBytes
	PublicKeyHash types.Hash
	Selected      types.TrusteeSet
}

func (b Ballots) Encode() []byte {
	w := NewWriter()
	w.WriteInt64(b.Batch)
	writeCiphertexts(w, b.Ciphertexts)
	w.WriteHash(b.PublicKeyHash)
	w.WriteTrusteeSet(b.Selected)
	return w.Bytes()
}

func DecodeBallots(buf []byte) (Ballots, error) {
	var b Ballots
	r := NewReader(buf)
	var err error
	if b.Batch, err = r.ReadInt64(); err != nil {
		return b, err
	}
	if b.Ciphertexts, err = readCiphertexts(r); err != nil {
		return b, err
	}
	if b.PublicKeyHash, err = r.ReadHash(); err != nil {
		return b, err
	}
	if b.Selected, err = r.ReadTrusteeSet(); err != nil {
		return b, err
	}
	return b, nil
}

func (b Ballots) Hash() types.Hash { return Hash(b.Encode()) }

// Mix is the canonical wire form of one shuffle-chain step (spec.md §3 "Mix").
type Mix struct {
	Batch       int64
	Source      types.Hash
	MixNumber   int
	Ciphertexts []CiphertextBytes
	Proof       ShuffleProofBytes
}

func (m Mix) Encode() []byte {
	w := NewWriter()
	w.WriteInt64(m.Batch)
	w.WriteHash(m.Source)
	w.WriteUint32(uint32(m.MixNumber))
	writeCiphertexts(w, m.Ciphertexts)
	writeShuffleProof(w, m.Proof)
	return w.Bytes()
}

func DecodeMix(buf []byte) (Mix, error) {
	var m Mix
	r := NewReader(buf)
	var err error
	if m.Batch, err = r.ReadInt64(); err != nil {
		return m, err
	}
	if m.Source, err = r.ReadHash(); err != nil {
		return m, err
	}
	n, err := r.ReadUint32()
	if err != nil {
		return m, err
	}
	m.MixNumber = int(n)
	if m.Ciphertexts, err = readCiphertexts(r); err != nil {
		return m, err
	}
	if m.Proof, err = readShuffleProof(r); err != nil {
		return m, err
	}
	return m, nil
}

func (m Mix) Hash() types.Hash { return Hash(m.Encode()) }

// DecryptionFactors is the canonical wire form of one trustee's partial
// decryption contribution (spec.md §3 "DecryptionFactors").
type DecryptionFactors struct {
	Batch     int64
	FinalHash types.Hash
	Factors   [][]byte
	Proofs    []DleqProofBytes
}

func (d DecryptionFactors) Encode() []byte {
	w := NewWriter()
	w.WriteInt64(d.Batch)
	w.WriteHash(d.FinalHash)
	w.WriteBytesVector(d.Factors)
	w.WriteUint32(uint32(len(d.Proofs)))
	for _, p := range d.Proofs {
		writeDleqProof(w, p)
	}
	return w.Bytes()
}

func DecodeDecryptionFactors(buf []byte) (DecryptionFactors, error) {
	var d DecryptionFactors
	r := NewReader(buf)
	var err error
	if d.Batch, err = r.ReadInt64(); err != nil {
		return d, err
	}
	if d.FinalHash, err = r.ReadHash(); err != nil {
		return d, err
	}
	if d.Factors, err = r.ReadBytesVector(); err != nil {
		return d, err
	}
	n, err := r.ReadUint32()
	if err != nil {
		return d, err
	}
	d.Proofs = make([]DleqProofBytes, n)
	for i := range d.Proofs {
		if d.Proofs[i], err = readDleqProof(r); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (d DecryptionFactors) Hash() types.Hash { return Hash(d.Encode()) }

// Plaintexts is the canonical wire form of the reconstructed plaintext
// batch (spec.md §3 "Plaintexts").
type Plaintexts struct {
	Batch  int64
	Values [][]byte
}

func (p Plaintexts) Encode() []byte {
	w := NewWriter()
	w.WriteInt64(p.Batch)
	w.WriteBytesVector(p.Values)
	return w.Bytes()
}

func DecodePlaintexts(buf []byte) (Plaintexts, error) {
	var p Plaintexts
	r := NewReader(buf)
	var err error
	if p.Batch, err = r.ReadInt64(); err != nil {
		return p, err
	}
	if p.Values, err = r.ReadBytesVector(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Plaintexts) Hash() types.Hash { return Hash(p.Encode()) }
