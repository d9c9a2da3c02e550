package ingest

import "encoding/base64"

// SourceFile - an uploaded file with its metadata, never mutated after ingest
type SourceFile struct {
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	LastModified int64  `json:"lastModified"`
	Data         []byte `json:"-"`
}

// ByteSize - size of the file payload
func (f SourceFile) ByteSize() int {
	return len(f.Data)
}

// EncodedImage - base64 payload ready for a collaborator request
type EncodedImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Encode - derive the wire representation of a source file
func Encode(f SourceFile) EncodedImage {
	return EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(f.Data),
		MimeType: f.MimeType,
	}
}

// EncodeAll - encode a file list in order
func EncodeAll(files []SourceFile) []EncodedImage {
	encoded := make([]EncodedImage, len(files))
	for i, f := range files {
		encoded[i] = Encode(f)
	}
	return encoded
}

// Rejection - one rejected file with its reason fragment
type Rejection struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// Result - outcome of one ingestion batch
// Accepted holds the slot's full contents after the batch, Message merges
// every rejection into one dismissible warning.
type Result struct {
	Accepted []SourceFile `json:"accepted"`
	Rejected []Rejection  `json:"rejected"`
	Message  string       `json:"message,omitempty"`
}

// Policy - slot rules for one ingestion batch
type Policy struct {
	MaxFiles int
	Append   bool // batch slot appends to the selection, all other slots replace
}
