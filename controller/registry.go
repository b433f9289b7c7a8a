package controller

import (
	"sort"
	"sync"
)

// Registry maps each guild to its one active session.
type Registry struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Get(guildID string) *Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.sessions[guildID]
}

// CreateIfAbsent returns the guild's session, creating an unbound one for
// channelID when there is none. created reports whether the caller now owns
// the join. An existing session bound to, or joining, another channel is
// returned along with ErrAlreadyActiveElsewhere.
func (r *Registry) CreateIfAbsent(guildID, channelID string) (*Session, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if session, ok := r.sessions[guildID]; ok {
		if session.channel() != channelID {
			return session, false, ErrAlreadyActiveElsewhere
		}
		return session, false, nil
	}

	session := newSession(guildID, channelID)
	r.sessions[guildID] = session
	return session, true, nil
}

func (r *Registry) Remove(guildID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.sessions, guildID)
}

// RemoveSession removes session only if it is still the guild's current one,
// so a late teardown never drops a newer session.
func (r *Registry) RemoveSession(session *Session) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.sessions[session.GuildID] != session {
		return false
	}
	delete(r.sessions, session.GuildID)
	return true
}

func (r *Registry) active(session *Session) bool {
	return r.Get(session.GuildID) == session
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.sessions)
}

// List is a snapshot ordered by guild ID.
func (r *Registry) List() []*Session {
	r.mutex.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mutex.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].GuildID < sessions[j].GuildID
	})
	return sessions
}
