package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// ErrAddressFormat indicates an address that cannot carry or yield a
// conversation identifier. It is a client error: callers must reject the
// input without persisting anything.
var ErrAddressFormat = goerr.New("malformed tagged address")

// addressTagDelimiter separates the base local part from the embedded
// conversation identifier, following the email sub-addressing convention.
const addressTagDelimiter = "+"

// EncodeAddress inserts the conversation identifier into the local part of
// the owner's base address: "user@ex.com" + "c1" -> "user+c1@ex.com".
// The tagged address lets inbound vendor events be correlated back to the
// conversation without any stored reverse mapping.
func EncodeAddress(base string, conversationID types.ConversationID) (string, error) {
	local, domain, err := splitAddress(base)
	if err != nil {
		return "", err
	}
	if conversationID == "" {
		return "", goerr.Wrap(ErrAddressFormat, "conversation ID is empty", goerr.V("base", base))
	}
	return local + addressTagDelimiter + conversationID.String() + "@" + domain, nil
}

// DecodeAddress recovers the base address and the conversation identifier
// from a tagged address: "user+c1@ex.com" -> ("user@ex.com", "c1").
func DecodeAddress(addr string) (string, types.ConversationID, error) {
	local, domain, err := splitAddress(addr)
	if err != nil {
		return "", "", err
	}

	base, tag, found := strings.Cut(local, addressTagDelimiter)
	if !found {
		return "", "", goerr.Wrap(ErrAddressFormat, "address has no conversation tag", goerr.V("address", addr))
	}
	if base == "" || tag == "" {
		return "", "", goerr.Wrap(ErrAddressFormat, "address tag parts are empty", goerr.V("address", addr))
	}

	return base + "@" + domain, types.ConversationID(tag), nil
}

func splitAddress(addr string) (local, domain string, err error) {
	if strings.Count(addr, "@") != 1 {
		return "", "", goerr.Wrap(ErrAddressFormat, "address must contain exactly one @", goerr.V("address", addr))
	}
	local, domain, _ = strings.Cut(addr, "@")
	if local == "" || domain == "" {
		return "", "", goerr.Wrap(ErrAddressFormat, "address local part or domain is empty", goerr.V("address", addr))
	}
	return local, domain, nil
}
