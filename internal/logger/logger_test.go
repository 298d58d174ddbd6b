package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "bobina", false)

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "bobina")
}

func TestFor_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "bobina", true)

	l := For("explorer")
	l.Debug().Msg("fetching")

	assert.Contains(t, buf.String(), "explorer")
	assert.Contains(t, buf.String(), "fetching")
}
