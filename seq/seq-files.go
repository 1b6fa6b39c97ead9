// deblur: a coordinator for denoising amplicon sequencing reads into a
// feature table.
// Copyright (c) 2021-2024 the deblur authors.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/bingxinhu/deblur/blob/master/LICENSE.txt>.

// Package seq implements reading and writing of FASTA and FASTQ files,
// with transparent gzip handling based on the file name.
package seq

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record is one sequence record. Label is the header without its leading
// '>' or '@' marker.
type Record struct {
	Label   string
	Letters []byte
}

// A Reader iterates over the records of a FASTA or FASTQ file. Readers
// are restartable by reopening the same path.
type Reader struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	fastq   bool
	header  string
}

const maxLineLength = 1024 * 1024

// Open opens path for reading sequence records. Files ending in .gz are
// decompressed on the fly; .fq/.fastq files are parsed as FASTQ,
// everything else as FASTA.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: f, fastq: isFastq(path)}
	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		r.gz = gz
		src = gz
	}
	r.scanner = bufio.NewScanner(src)
	r.scanner.Buffer(make([]byte, 0, maxLineLength), maxLineLength)
	return r, nil
}

func isFastq(path string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz"))) {
	case ".fq", ".fastq":
		return true
	}
	return false
}

func (r *Reader) scanErr() error {
	if err := r.scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (*Record, error) {
	if r.fastq {
		return r.nextFastq()
	}
	return r.nextFasta()
}

func (r *Reader) nextFasta() (*Record, error) {
	for r.header == "" {
		if !r.scanner.Scan() {
			return nil, r.scanErr()
		}
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if line[0] != '>' {
			return nil, fmt.Errorf("sequence data before first FASTA header: %v", line)
		}
		r.header = line[1:]
	}
	rec := &Record{Label: r.header}
	r.header = ""
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			r.header = line[1:]
			return rec, nil
		}
		rec.Letters = append(rec.Letters, line...)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Reader) nextFastq() (*Record, error) {
	var head string
	for head == "" {
		if !r.scanner.Scan() {
			return nil, r.scanErr()
		}
		head = strings.TrimSpace(r.scanner.Text())
	}
	if head[0] != '@' {
		return nil, fmt.Errorf("invalid FASTQ header: %v", head)
	}
	rec := &Record{Label: head[1:]}
	// sequence, separator, qualities; qualities are not retained
	for i := 0; i < 3; i++ {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("truncated FASTQ record %v", rec.Label)
		}
		if i == 0 {
			rec.Letters = append(rec.Letters, strings.TrimSpace(r.scanner.Text())...)
		}
	}
	return rec, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
	}
	if nerr := r.file.Close(); err == nil {
		err = nerr
	}
	return err
}

// ReadAll reads every record of the file at path.
func ReadAll(path string) (records []*Record, err error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := r.Close()
		if err == nil {
			err = nerr
		}
	}()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// A Writer writes records in FASTA format, gzip-compressed when the
// target file name ends in .gz.
type Writer struct {
	file *os.File
	gz   *gzip.Writer
	w    *bufio.Writer
}

// Create opens path for writing FASTA records, truncating any existing
// file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{file: f}
	if strings.HasSuffix(path, ".gz") {
		w.gz = gzip.NewWriter(f)
		w.w = bufio.NewWriter(w.gz)
	} else {
		w.w = bufio.NewWriter(f)
	}
	return w, nil
}

// Write writes one record.
func (w *Writer) Write(rec *Record) error {
	_, err := fmt.Fprintf(w.w, ">%s\n%s\n", rec.Label, rec.Letters)
	return err
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.gz != nil {
		if nerr := w.gz.Close(); err == nil {
			err = nerr
		}
	}
	if nerr := w.file.Close(); err == nil {
		err = nerr
	}
	return err
}

// WriteFasta writes all records to a FASTA file at path.
func WriteFasta(path string, records []*Record) (err error) {
	w, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		nerr := w.Close()
		if err == nil {
			err = nerr
		}
	}()
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

const sizeAnnotation = ";size="

// Size returns the abundance annotated on a label in the ";size=N" style
// produced by dereplication, or 1 when the label carries no annotation.
func Size(label string) int {
	i := strings.Index(label, sizeAnnotation)
	if i < 0 {
		return 1
	}
	j := i + len(sizeAnnotation)
	k := j
	for k < len(label) && label[k] >= '0' && label[k] <= '9' {
		k++
	}
	n, err := strconv.Atoi(label[j:k])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Strip returns the label without its abundance annotation.
func Strip(label string) string {
	i := strings.Index(label, sizeAnnotation)
	if i < 0 {
		return label
	}
	k := i + len(sizeAnnotation)
	for k < len(label) && label[k] >= '0' && label[k] <= '9' {
		k++
	}
	return label[:i] + label[k:]
}

// Annotate returns the label with its abundance annotation set to size.
func Annotate(label string, size int) string {
	return fmt.Sprintf("%s%s%d", Strip(label), sizeAnnotation, size)
}
