// Package session keeps each chat user's position in the purchase funnel.
//
// State lives in process memory only and is lost on restart. Entries for
// different users never contend on the same lock beyond a shard; two events
// for the same user resolve as last write wins.
package session

import "sync"

type State int

const (
	Idle State = iota
	AwaitingPassword
	ViewingCourses
	SelectingPayment
	SendingProof
	SearchingCourses
	EnteringGiftCode
	AwaitingCourseRequest
)

var stateNames = [...]string{
	Idle:                  "idle",
	AwaitingPassword:      "awaiting_password",
	ViewingCourses:        "viewing_courses",
	SelectingPayment:      "selecting_payment",
	SendingProof:          "sending_proof",
	SearchingCourses:      "searching_courses",
	EnteringGiftCode:      "entering_gift_code",
	AwaitingCourseRequest: "awaiting_course_request",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Flow is the transient data of the purchase in progress.
type Flow struct {
	CourseID uint
	Method   string
}

func (f Flow) Complete() bool { return f.CourseID != 0 && f.Method != "" }

type Session struct {
	State         State
	Authenticated bool
	Flow          Flow
}

const shardCount = 32

type shard struct {
	mu   sync.RWMutex
	data map[int64]Session
}

// Store maps a user id to its Session. The zero value is not usable; call NewStore.
type Store struct {
	shards [shardCount]*shard
}

func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[int64]Session)}
	}
	return s
}

func (s *Store) shard(userID int64) *shard {
	i := userID % shardCount
	if i < 0 {
		i = -i
	}
	return s.shards[i]
}

// Get returns the user's session and whether one exists. A missing session reads as Idle.
func (s *Store) Get(userID int64) (Session, bool) {
	sh := s.shard(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sess, ok := sh.data[userID]
	return sess, ok
}

func (s *Store) State(userID int64) State {
	sess, _ := s.Get(userID)
	return sess.State
}

// Update applies fn to the user's session under the shard lock.
func (s *Store) Update(userID int64, fn func(*Session)) Session {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sess := sh.data[userID]
	fn(&sess)
	sh.data[userID] = sess
	return sess
}

func (s *Store) Set(userID int64, state State) {
	s.Update(userID, func(sess *Session) { sess.State = state })
}

func (s *Store) SetFlowData(userID int64, flow Flow) {
	s.Update(userID, func(sess *Session) { sess.Flow = flow })
}

func (s *Store) ClearFlowData(userID int64) {
	s.Update(userID, func(sess *Session) { sess.Flow = Flow{} })
}

// Reset returns the user to Idle and drops any purchase in progress.
func (s *Store) Reset(userID int64) {
	s.Update(userID, func(sess *Session) {
		sess.State = Idle
		sess.Flow = Flow{}
	})
}

func (s *Store) MarkAuthenticated(userID int64) {
	s.Update(userID, func(sess *Session) { sess.Authenticated = true })
}

func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.data)
		sh.mu.RUnlock()
	}
	return n
}
