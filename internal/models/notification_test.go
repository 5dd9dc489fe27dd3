package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadVariants(t *testing.T) {
	cases := []struct {
		name    string
		kind    NotificationType
		payload Linker
		link    string
	}{
		{"connection request", NotificationConnectionRequest, ConnectionRequestData{ConnectionID: 3, SenderID: 8}, "/connections/pending"},
		{"connection accepted", NotificationConnectionAccepted, ConnectionAcceptedData{ConnectionID: 3, ReceiverID: 5}, "/members/5"},
		{"post liked", NotificationPostLiked, PostLikedData{PostID: 11, LikerID: 2}, "/posts/11"},
		{"post commented", NotificationPostCommented, PostCommentedData{PostID: 11, CommentID: 6, AuthorID: 2}, "/posts/11#comment-6"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := EncodePayload(tc.payload)
			require.NoError(t, err)

			n := Notification{Type: tc.kind, Data: raw}
			decoded, err := n.DecodePayload()
			require.NoError(t, err)
			assert.Equal(t, tc.payload, decoded)
			assert.Equal(t, tc.link, decoded.Link())
		})
	}
}

func TestDecodePayloadUnknownType(t *testing.T) {
	n := Notification{Type: "mystery", Data: json.RawMessage(`{}`)}
	_, err := n.DecodePayload()
	assert.Error(t, err)
}

func TestDecodePayloadMalformedData(t *testing.T) {
	n := Notification{Type: NotificationPostLiked, Data: json.RawMessage(`{"post_id":`)}
	_, err := n.DecodePayload()
	assert.Error(t, err)
}

func TestConnectionStatusTerminal(t *testing.T) {
	assert.False(t, ConnectionPending.Terminal())
	assert.True(t, ConnectionAccepted.Terminal())
	assert.True(t, ConnectionRejected.Terminal())
}
