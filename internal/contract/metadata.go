// Package contract mediates calls into deployed chain contracts: it parses
// interface descriptions, runs dry-run queries for outcome decoding and
// weight estimation, and builds the real state-changing calls.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrInvalidInterfaceDescription = errors.New("invalid interface description")
	ErrUnknownMessage              = errors.New("unknown contract message")
)

// Message is one callable entry point of a contract.
type Message struct {
	Label    string
	Selector []byte
	Mutates  bool
	Payable  bool
}

// Metadata is the parsed interface description of a contract.
type Metadata struct {
	Name     string
	Version  string
	messages map[string]Message
}

type rawMetadata struct {
	Contract struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"contract"`
	Spec struct {
		Messages []struct {
			Label    string `json:"label"`
			Selector string `json:"selector"`
			Mutates  bool   `json:"mutates"`
			Payable  bool   `json:"payable"`
		} `json:"messages"`
	} `json:"spec"`
}

// ParseMetadata parses an ink! metadata document. Parsing happens once at
// load time; malformed descriptions fail here rather than at call time.
func ParseMetadata(raw []byte) (*Metadata, error) {
	var doc rawMetadata
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterfaceDescription, err)
	}
	if len(doc.Spec.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages in spec", ErrInvalidInterfaceDescription)
	}

	meta := &Metadata{
		Name:     doc.Contract.Name,
		Version:  doc.Contract.Version,
		messages: make(map[string]Message, len(doc.Spec.Messages)),
	}
	for _, m := range doc.Spec.Messages {
		selector, err := hexutil.Decode(m.Selector)
		if err != nil || len(selector) != 4 {
			return nil, fmt.Errorf("%w: message %q has bad selector %q", ErrInvalidInterfaceDescription, m.Label, m.Selector)
		}
		meta.messages[m.Label] = Message{
			Label:    m.Label,
			Selector: selector,
			Mutates:  m.Mutates,
			Payable:  m.Payable,
		}
	}
	return meta, nil
}

// Message looks up a callable message by label.
func (m *Metadata) Message(label string) (Message, error) {
	msg, ok := m.messages[label]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q on %s", ErrUnknownMessage, label, m.Name)
	}
	return msg, nil
}

// Messages returns the labels of all callable messages.
func (m *Metadata) Messages() []string {
	labels := make([]string, 0, len(m.messages))
	for label := range m.messages {
		labels = append(labels, label)
	}
	return labels
}
