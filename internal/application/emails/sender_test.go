package emails

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	s := LogSender{From: "events@exp.vn"}
	err := s.SendInvitation(context.Background(), Message{To: "a@b.com", Subject: "Hi", HTML: "<p>x</p>"})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"to":"a@b.com"`)
	assert.Contains(t, buf.String(), `"from":"events@exp.vn"`)

	assert.Error(t, s.SendInvitation(context.Background(), Message{}))
}
