// Package ilist provides an intrusive doubly linked list. Elements carry
// their own links, so pushing and removing never allocate.
package ilist

// Linker is implemented by anything that can sit in a List. Embedding Entry
// is the usual way to get it.
type Linker interface {
	Next() Element
	Prev() Element
	SetNext(Element)
	SetPrev(Element)
}

// Element is an item of a List.
type Element interface {
	Linker
}

// List is an intrusive list. The zero value is an empty list.
//
//	for e := l.Front(); e != nil; e = e.Next() {
//		// use e
//	}
type List struct {
	head Element
	tail Element
}

// Front returns the first element of l, or nil.
func (l *List) Front() Element {
	return l.head
}

// PushBack appends e to l.
func (l *List) PushBack(e Element) {
	e.SetNext(nil)
	e.SetPrev(l.tail)

	if l.tail != nil {
		l.tail.SetNext(e)
	} else {
		l.head = e
	}

	l.tail = e
}

// Remove unlinks e, which must be in l.
func (l *List) Remove(e Element) {
	prev := e.Prev()
	next := e.Next()

	if prev != nil {
		prev.SetNext(next)
	} else {
		l.head = next
	}

	if next != nil {
		next.SetPrev(prev)
	} else {
		l.tail = prev
	}

	e.SetNext(nil)
	e.SetPrev(nil)
}

// Entry implements Linker. Embed it to make a struct a list element.
type Entry struct {
	next Element
	prev Element
}

func (e *Entry) Next() Element { return e.next }

func (e *Entry) Prev() Element { return e.prev }

func (e *Entry) SetNext(next Element) { e.next = next }

func (e *Entry) SetPrev(prev Element) { e.prev = prev }
