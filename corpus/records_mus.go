// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corpus

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/taskrank/core"
)

// Stored field order is part of the on-disk format. Append new fields at the
// end of a record and never reorder existing ones.

var (
	TaskMUS       mus.Serializer[core.Task]  = taskMUS{}
	CheckpointMUS mus.Serializer[Checkpoint] = checkpointMUS{}
)

type taskMUS struct{}

func (taskMUS) Marshal(t core.Task, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(t.ID), bs)
	n += ord.String.Marshal(t.Text, bs[n:])
	n += ord.String.Marshal(t.Location, bs[n:])
	n += varint.Int.Marshal(t.Priority, bs[n:])
	n += dayMUS.Marshal(t.Due, bs[n:])
	n += dayMUS.Marshal(t.Created, bs[n:])
	n += dayMUS.Marshal(t.Completed, bs[n:])
	n += ord.String.Marshal(t.Status, bs[n:])
	n += tagsMUS.Marshal(t.Tags, bs[n:])
	return n + ord.String.Marshal(t.Folder, bs[n:])
}

func (taskMUS) Unmarshal(bs []byte) (t core.Task, n int, err error) {
	var (
		id uint64
		n1 int
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	t.ID = core.ID(id)
	t.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Location, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Priority, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Due, n1, err = dayMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Created, n1, err = dayMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Completed, n1, err = dayMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Status, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Tags, n1, err = tagsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Folder, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (taskMUS) Size(t core.Task) (size int) {
	size = varint.Uint64.Size(uint64(t.ID))
	size += ord.String.Size(t.Text)
	size += ord.String.Size(t.Location)
	size += varint.Int.Size(t.Priority)
	size += dayMUS.Size(t.Due)
	size += dayMUS.Size(t.Created)
	size += dayMUS.Size(t.Completed)
	size += ord.String.Size(t.Status)
	size += tagsMUS.Size(t.Tags)
	return size + ord.String.Size(t.Folder)
}

func (s taskMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type checkpointMUS struct{}

// ModTime keeps nanoseconds so Checkpoint.Unchanged compares exactly.
func (checkpointMUS) Marshal(c Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(c.Source, bs)
	n += varint.Int64.Marshal(c.ModTime.UnixNano(), bs[n:])
	n += varint.Int64.Marshal(c.Size, bs[n:])
	n += varint.Int.Marshal(c.TaskCount, bs[n:])
	return n + varint.Int64.Marshal(c.UpdatedAt.UnixMicro(), bs[n:])
}

func (checkpointMUS) Unmarshal(bs []byte) (c Checkpoint, n int, err error) {
	var (
		v  int64
		n1 int
	)
	if c.Source, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.ModTime = time.Unix(0, v).UTC()
	c.Size, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.TaskCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.UpdatedAt = time.UnixMicro(v).UTC()
	return
}

func (checkpointMUS) Size(c Checkpoint) (size int) {
	size = ord.String.Size(c.Source)
	size += varint.Int64.Size(c.ModTime.UnixNano())
	size += varint.Int64.Size(c.Size)
	size += varint.Int.Size(c.TaskCount)
	return size + varint.Int64.Size(c.UpdatedAt.UnixMicro())
}

func (s checkpointMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// dayMUS stores an optional calendar day as a presence flag followed by the
// day number since the Unix epoch.
var dayMUS = daySer{}

type daySer struct{}

const secondsPerDay = 24 * 60 * 60

func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

func (daySer) Marshal(t *time.Time, bs []byte) (n int) {
	if t == nil {
		return ord.Bool.Marshal(false, bs)
	}
	n = ord.Bool.Marshal(true, bs)
	return n + varint.Int64.Marshal(dayNumber(*t), bs[n:])
}

func (daySer) Unmarshal(bs []byte) (t *time.Time, n int, err error) {
	var (
		present bool
		days    int64
		n1      int
	)
	if present, n, err = ord.Bool.Unmarshal(bs); err != nil || !present {
		return
	}
	days, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d := time.Unix(days*secondsPerDay, 0).UTC()
	return &d, n, nil
}

func (daySer) Size(t *time.Time) int {
	if t == nil {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + varint.Int64.Size(dayNumber(*t))
}

// tagsMUS stores a length-prefixed list of strings.
var tagsMUS = tagsSer{}

type tagsSer struct{}

func (tagsSer) Marshal(tags []string, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(tags), bs)
	for _, tag := range tags {
		n += ord.String.Marshal(tag, bs[n:])
	}
	return n
}

func (tagsSer) Unmarshal(bs []byte) (tags []string, n int, err error) {
	var (
		count, n1 int
		tag       string
	)
	if count, n, err = varint.PositiveInt.Unmarshal(bs); err != nil {
		return
	}
	if count == 0 {
		return nil, n, nil
	}
	// Every string takes at least one byte, which bounds a corrupt count.
	if count < 0 || count > len(bs)-n {
		return nil, n, mus.ErrTooSmallByteSlice
	}
	tags = make([]string, 0, count)
	for range count {
		tag, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		tags = append(tags, tag)
	}
	return
}

func (tagsSer) Size(tags []string) (size int) {
	size = varint.PositiveInt.Size(len(tags))
	for _, tag := range tags {
		size += ord.String.Size(tag)
	}
	return size
}
