// Code generated by musgen-go. DO NOT EDIT.

package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var (
	mapi5MTrΣFFQzYQgcJkv3vFggΞΞ   = ord.NewMapSer[string, string](ord.String, ord.String)
	slicehdSxS56TnjOseGuHg2ZfwQΞΞ = ord.NewSliceSer[float32](varint.Float32)
)

var IDMUS = iDMUS{}

type iDMUS struct{}

func (s iDMUS) Marshal(v ID, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s iDMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ID(tmp)
	return
}

func (s iDMUS) Size(v ID) (size int) {
	return ord.String.Size(string(v))
}

func (s iDMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

var DocumentChunkMUS = documentChunkMUS{}

type documentChunkMUS struct{}

func (s documentChunkMUS) Marshal(v DocumentChunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += slicehdSxS56TnjOseGuHg2ZfwQΞΞ.Marshal(v.Embedding, bs[n:])
	n += mapi5MTrΣFFQzYQgcJkv3vFggΞΞ.Marshal(v.Metadata, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.IngestedAt, bs[n:])
	return n + raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
}

func (s documentChunkMUS) Unmarshal(bs []byte) (v DocumentChunk, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = slicehdSxS56TnjOseGuHg2ZfwQΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = mapi5MTrΣFFQzYQgcJkv3vFggΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.IngestedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentChunkMUS) Size(v DocumentChunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Text)
	size += slicehdSxS56TnjOseGuHg2ZfwQΞΞ.Size(v.Embedding)
	size += mapi5MTrΣFFQzYQgcJkv3vFggΞΞ.Size(v.Metadata)
	size += raw.TimeUnixMicro.Size(v.IngestedAt)
	return size + raw.TimeUnixMicro.Size(v.UpdatedAt)
}

func (s documentChunkMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = slicehdSxS56TnjOseGuHg2ZfwQΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = mapi5MTrΣFFQzYQgcJkv3vFggΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	return
}
