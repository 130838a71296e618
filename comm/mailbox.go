package comm

import "fmt"

// DynBuffer is an append-only message buffer that can be emptied and reused
type DynBuffer[T any] struct {
	cells []T
}

func NewDynBuffer[T any](capacity int) *DynBuffer[T] {
	return &DynBuffer[T]{cells: make([]T, 0, capacity)}
}

func (db *DynBuffer[T]) Add(val T) { db.cells = append(db.cells, val) }
func (db *DynBuffer[T]) Cells() []T { return db.cells }
func (db *DynBuffer[T]) Reset() { db.cells = db.cells[:0] }
func (db *DynBuffer[T]) Len() int { return len(db.cells) }

// Envelope tags a message with the rank that posted it
type Envelope[T any] struct {
	From int
	Msg  T
}

type MailBox[T any] struct {
	NP           int
	MessageChans []chan []Envelope[T]              // One for each rank
	PostMsgQs    []map[int]*DynBuffer[Envelope[T]] // One for each rank, key is target rank
	ReceiveMsgQs []*DynBuffer[Envelope[T]]         // One for each rank
	MailFlag     []bool                            // MyRank has messages in outbox
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan []Envelope[T], NP),
		PostMsgQs:    make([]map[int]*DynBuffer[Envelope[T]], NP),
		ReceiveMsgQs: make([]*DynBuffer[Envelope[T]], NP),
		MailFlag:     make([]bool, NP),
	}
	for n := 0; n < NP; n++ {
		mb.MessageChans[n] = make(chan []Envelope[T], NP) // Worst case is all-to-all
		mb.PostMsgQs[n] = make(map[int]*DynBuffer[Envelope[T]])
		mb.ReceiveMsgQs[n] = NewDynBuffer[Envelope[T]](0)
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myRank, targetRank int, msg T) {
	if targetRank < 0 || targetRank > mb.NP-1 {
		panic(fmt.Sprintf("Target rank %d out of bounds", targetRank))
	}
	tgt, exists := mb.PostMsgQs[myRank][targetRank]
	if !exists {
		tgt = NewDynBuffer[Envelope[T]](0)
		mb.PostMsgQs[myRank][targetRank] = tgt
	}
	tgt.Add(Envelope[T]{From: myRank, Msg: msg})
	mb.MailFlag[myRank] = true
}

func (mb *MailBox[T]) PostMessageToAll(myRank int, msg T) {
	for k := 0; k < mb.NP; k++ {
		if k != myRank {
			mb.PostMessage(myRank, k, msg)
		}
	}
}

// DeliverMyMessages hands a copy of every queued outbox to its target, so the
// sender's buffers can be refilled before the receiver has drained them.
func (mb *MailBox[T]) DeliverMyMessages(myRank int) {
	if !mb.MailFlag[myRank] {
		return
	}
	for targetRank, msgBuffer := range mb.PostMsgQs[myRank] {
		if msgBuffer.Len() == 0 {
			continue
		}
		msgs := make([]Envelope[T], msgBuffer.Len())
		copy(msgs, msgBuffer.Cells())
		mb.MessageChans[targetRank] <- msgs
		msgBuffer.Reset()
	}
	mb.MailFlag[myRank] = false
}

func (mb *MailBox[T]) ReceiveMyMessages(myRank int) {
	for {
		select {
		case msgs := <-mb.MessageChans[myRank]:
			for _, msg := range msgs {
				mb.ReceiveMsgQs[myRank].Add(msg)
			}
		default:
			return
		}
	}
}

func (mb *MailBox[T]) ClearMyMessages(myRank int) {
	mb.ReceiveMsgQs[myRank].Reset()
}
