// Package recordio implements the fixed-size-page storage substrate: the
// physical PageIO layer, its free-page list, and the logical-record
// abstraction layered over chains of pages.
package recordio

import "github.com/dibyang/directory-mavibot/internal/bigendian"

// headerBytes is the size, in bytes, of the fixed prefix every physical
// page carries: an 8-byte next-page-offset link followed by a 4-byte
// logical-size field meaningful only on the first page of a chain.
const headerBytes = 12

// EndOfChain is the nextPageOffset sentinel marking the last page in a
// chain (or an empty free list).
const EndOfChain int64 = -1

// Page is one physical fixed-size block together with its in-memory
// buffer. The caller that obtained a Page from Fetch or Allocate owns its
// buffer; the store never aliases a live Page's buffer across callers.
type Page struct {
	Offset int64
	data   []byte
}

func newPage(offset int64, data []byte) *Page {
	return &Page{Offset: offset, data: data}
}

// Next returns the chain-link (or free-list-link) offset stored in this
// page's header.
func (p *Page) Next() int64 {
	return bigendian.Int64(p.data[0:8])
}

// SetNext updates the chain-link offset.
func (p *Page) SetNext(offset int64) {
	bigendian.PutInt64(p.data[0:8], offset)
}

// LogicalSize returns the total payload length of the chain this page
// anchors. Meaningful only when this Page is the first page of a chain.
func (p *Page) LogicalSize() uint32 {
	return bigendian.Uint32(p.data[8:12])
}

// SetLogicalSize updates the logical-size field.
func (p *Page) SetLogicalSize(size uint32) {
	bigendian.PutUint32(p.data[8:12], size)
}

// FirstPayload returns the payload window used when this page is the
// first page of a chain: pageSize-12 bytes starting right after the
// header.
func (p *Page) FirstPayload() []byte {
	return p.data[headerBytes:]
}

// ContPayload returns the payload window used when this page is a
// continuation page: pageSize-8 bytes, reusing the logical-size field's
// four bytes since that field is only meaningful on a chain's first page.
func (p *Page) ContPayload() []byte {
	return p.data[8:]
}

// Raw returns the full pageSize-byte backing buffer, header included.
func (p *Page) Raw() []byte {
	return p.data
}

// Reset zeroes a page's buffer and marks it as a standalone, empty chain:
// no next page and a logical size of zero. Used by Allocate before
// handing a page to a caller.
func (p *Page) Reset() {
	for i := range p.data {
		p.data[i] = 0
	}
	p.SetNext(EndOfChain)
	p.SetLogicalSize(0)
}

// firstPayloadLen and contPayloadLen mirror spec §4.2's virtual-offset
// mapping: a chain's first page carries pageSize-12 bytes of logical
// record content, every subsequent page carries pageSize-8 bytes.
func firstPayloadLen(pageSize int) int { return pageSize - headerBytes }
func contPayloadLen(pageSize int) int  { return pageSize - 8 }

// VirtualOffsetToPagePos maps a virtual offset p within a logical record
// to the zero-based index of the page that holds it and the byte position
// within that page's payload window, per spec §4.2:
//
//	pageIndex = 0                                     if p < pageSize-12
//	          = 1 + (p-(pageSize-12)) / (pageSize-8)   otherwise
func VirtualOffsetToPagePos(pageSize int, p int) (pageIndex int, pagePos int) {
	first := firstPayloadLen(pageSize)
	if p < first {
		return 0, p
	}
	rest := contPayloadLen(pageSize)
	rem := p - first
	pageIndex = 1 + rem/rest
	pagePos = rem % rest
	return pageIndex, pagePos
}
