package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags(""))
	assert.Equal(t, []string{"stoicism"}, splitTags("stoicism"))
	assert.Equal(t, []string{"stoicism", "life"}, splitTags("stoicism|life"))
	assert.Equal(t, []string{"a", "b"}, splitTags(" a | b | "))
}

func TestCellHandlesMissingAndShortRows(t *testing.T) {
	columns := map[string]int{"text": 0, "author": 1, "tags": 3}
	record := []string{" some text ", "Seneca"}

	assert.Equal(t, "some text", cell(record, columns, "text"))
	assert.Equal(t, "Seneca", cell(record, columns, "author"))
	assert.Equal(t, "", cell(record, columns, "tags"), "index past the row is empty, not a panic")
	assert.Equal(t, "", cell(record, columns, "source"), "unknown column is empty")
}
