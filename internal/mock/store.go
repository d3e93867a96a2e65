package mock

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"

	"google.golang.org/api/gmail/v1"
)

// Store is an in-memory mailbox served in the shape of the Gmail REST API.
type Store struct {
	mu          sync.RWMutex
	messages    map[string]*gmail.Message
	attachments map[string][]byte // keyed by messageID + "/" + attachmentID
	// failures forces a status code for list calls with a given query.
	failures map[string]int
}

func NewStore() *Store {
	return &Store{
		messages:    make(map[string]*gmail.Message),
		attachments: make(map[string][]byte),
		failures:    make(map[string]int),
	}
}

// Add stores msg, replacing any message with the same id.
func (s *Store) Add(msg *gmail.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.Id] = msg
}

// AddAttachment stores the payload served for messageID/attachmentID.
func (s *Store) AddAttachment(messageID, attachmentID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[messageID+"/"+attachmentID] = data
}

// FailQuery makes list calls for query answer with status. Zero clears it.
func (s *Store) FailQuery(query string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, query)
		return
	}
	s.failures[query] = status
}

func (s *Store) failureFor(query string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[query]
}

// List returns ids matching query, newest first, starting at offset.
func (s *Store) List(query string, offset, limit int) (refs []*gmail.Message, next int, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*gmail.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if matchesQuery(msg, query) {
			matched = append(matched, msg)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].InternalDate == matched[j].InternalDate {
			return matched[i].Id > matched[j].Id
		}
		return matched[i].InternalDate > matched[j].InternalDate
	})

	total = len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end >= total {
		end = total
	} else {
		next = end
	}
	for _, msg := range matched[offset:end] {
		refs = append(refs, &gmail.Message{Id: msg.Id, ThreadId: msg.ThreadId})
	}
	return refs, next, total
}

// Get returns a copy of the message, or nil.
func (s *Store) Get(id string) *gmail.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil
	}
	return clone(msg)
}

func clone(msg *gmail.Message) *gmail.Message {
	cp := *msg
	cp.LabelIds = append([]string(nil), msg.LabelIds...)
	return &cp
}

// Modify applies label changes and returns the updated message, or nil.
func (s *Store) Modify(id string, add, remove []string) *gmail.Message {
	s.mu.Lock()
	msg, ok := s.messages[id]
	if ok {
		labels := make([]string, 0, len(msg.LabelIds)+len(add))
		for _, l := range msg.LabelIds {
			if !contains(remove, l) {
				labels = append(labels, l)
			}
		}
		for _, l := range add {
			if !contains(labels, l) {
				labels = append(labels, l)
			}
		}
		msg.LabelIds = labels
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Get(id)
}

// Thread returns the thread's messages oldest first, or nil.
func (s *Store) Thread(id string) *gmail.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var msgs []*gmail.Message
	for _, msg := range s.messages {
		if msg.ThreadId == id {
			msgs = append(msgs, clone(msg))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].InternalDate < msgs[j].InternalDate
	})
	return &gmail.Thread{Id: id, Messages: msgs, Snippet: msgs[0].Snippet}
}

// Attachment returns the encoded attachment body, or nil.
func (s *Store) Attachment(messageID, attachmentID string) *gmail.MessagePartBody {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.attachments[messageID+"/"+attachmentID]
	if !ok {
		return nil
	}
	return &gmail.MessagePartBody{
		AttachmentId: attachmentID,
		Size:         int64(len(data)),
		Data:         base64.URLEncoding.EncodeToString(data),
	}
}

// matchesQuery understands the small subset of search syntax the mail
// service sends: in:<view>, label:<id>, is:unread and is:starred.
func matchesQuery(msg *gmail.Message, query string) bool {
	for _, term := range strings.Fields(query) {
		key, value, _ := strings.Cut(strings.ToLower(term), ":")
		switch key {
		case "in":
			if !inView(msg, value) {
				return false
			}
		case "label":
			if !contains(msg.LabelIds, strings.ToUpper(value)) {
				return false
			}
		case "is":
			if !contains(msg.LabelIds, strings.ToUpper(value)) {
				return false
			}
		default:
			if !strings.Contains(strings.ToLower(msg.Snippet), strings.ToLower(term)) {
				return false
			}
		}
	}
	return true
}

func inView(msg *gmail.Message, view string) bool {
	switch view {
	case "inbox":
		return contains(msg.LabelIds, "INBOX")
	case "sent":
		return contains(msg.LabelIds, "SENT")
	case "drafts", "draft":
		return contains(msg.LabelIds, "DRAFT")
	case "spam":
		return contains(msg.LabelIds, "SPAM")
	case "trash":
		return contains(msg.LabelIds, "TRASH")
	case "archive":
		for _, l := range []string{"INBOX", "SENT", "DRAFT", "SPAM", "TRASH"} {
			if contains(msg.LabelIds, l) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func parseOffset(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	var offset int
	if _, err := fmt.Sscanf(token, "page-%d", &offset); err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return offset, nil
}

func pageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return fmt.Sprintf("page-%d", offset)
}
