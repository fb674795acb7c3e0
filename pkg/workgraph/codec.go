package workgraph

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/workgraph/pkg/plan"
	"github.com/matzehuels/workgraph/pkg/serialization"
)

var (
	// ErrUnsupportedGroup is returned when a node's group is not one of the
	// known group variants.
	ErrUnsupportedGroup = errors.New("unsupported group variant")

	// ErrUnscheduledFinalizer is returned when a finalizer group refers to a
	// node that is not part of the encoded sequence.
	ErrUnscheduledFinalizer = errors.New("finalizer node is not scheduled")

	// ErrDuplicateNode is returned when the same node appears twice in the
	// sequence passed to [Codec.Encode].
	ErrDuplicateNode = errors.New("duplicate node in sequence")
)

// Codec encodes and decodes ordered work graphs. A Codec holds no per-pass
// state and may be shared between goroutines; every Encode and Decode call
// uses its own id tables and identity registries.
type Codec struct {
	payloads PayloadCodec
	logger   *log.Logger
}

// Option configures a [Codec].
type Option func(*Codec)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// New creates a codec using payloads for node state. If payloads is nil,
// [NodePayloads] is used.
func New(payloads PayloadCodec, opts ...Option) *Codec {
	c := &Codec{payloads: payloads}
	for _, opt := range opts {
		opt(c)
	}
	if c.payloads == nil {
		c.payloads = NodePayloads{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Encode writes nodes to w. Nodes are not modified.
func (c *Codec) Encode(w io.Writer, nodes []*plan.Node) error {
	e := &encoder{
		w:        serialization.NewWriter(w),
		payloads: c.payloads,
		ids:      make(nodeIDs, len(nodes)),
		groups:   serialization.NewWriteIdentities[plan.Group](),
	}
	if err := e.w.WriteSmallInt(len(nodes)); err != nil {
		return err
	}
	for id, n := range nodes {
		if _, dup := e.ids[n]; dup {
			return fmt.Errorf("node %d %s: %w", id, n.Path, ErrDuplicateNode)
		}
		if err := e.writeNode(n); err != nil {
			return fmt.Errorf("node %d %s: %w", id, n.Path, err)
		}
		e.ids[n] = id
	}
	for id, n := range nodes {
		if err := e.writeGroup(n.Group()); err != nil {
			return fmt.Errorf("group of node %d %s: %w", id, n.Path, err)
		}
	}
	c.logger.Debug("encoded work graph", "nodes", len(nodes), "groups", e.groups.Len(), "bytes", e.w.Written())
	return nil
}

// EncodeBytes is a convenience wrapper around [Codec.Encode].
func (c *Codec) EncodeBytes(nodes []*plan.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, nodes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a complete work graph from r. The input must contain exactly
// one encoded graph.
func (c *Codec) Decode(r io.Reader) ([]*plan.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read work graph: %w", err)
	}
	return c.DecodeBytes(data)
}

// DecodeBytes decodes a work graph from data. On failure no nodes are
// returned.
func (c *Codec) DecodeBytes(data []byte) ([]*plan.Node, error) {
	r := serialization.NewReader(data)
	count, err := r.ReadCount()
	if err != nil {
		return nil, fmt.Errorf("node count: %w", err)
	}
	d := &decoder{
		r:        r,
		payloads: c.payloads,
		nodes:    make(nodeTable, 0, count),
		groups:   serialization.NewReadIdentities[plan.Group](),
	}
	for id := range count {
		n, err := d.readNode()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		d.nodes = append(d.nodes, n)
	}
	for id, n := range d.nodes {
		g, err := d.readGroup()
		if err != nil {
			return nil, fmt.Errorf("group of node %d %s: %w", id, n.Path, err)
		}
		n.SetGroup(g)
	}
	if r.Remaining() != 0 {
		return nil, r.Corruptf("%d trailing bytes", r.Remaining())
	}
	c.logger.Debug("decoded work graph", "nodes", len(d.nodes), "groups", d.groups.Len(), "bytes", len(data))
	return d.nodes, nil
}

// nodeIDs assigns local ids to nodes during encoding. A node has an id only
// once it and its edges have been written.
type nodeIDs map[*plan.Node]int

// nodeTable resolves local ids to decoded nodes; the id is the index.
type nodeTable []*plan.Node

func (t nodeTable) lookup(id int) (*plan.Node, bool) {
	if id < 0 || id >= len(t) {
		return nil, false
	}
	return t[id], true
}

type encoder struct {
	w        *serialization.Writer
	payloads PayloadCodec
	ids      nodeIDs
	groups   *serialization.WriteIdentities[plan.Group]
}

func (e *encoder) writeNode(n *plan.Node) error {
	if err := e.payloads.WriteNode(e.w, n); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	return e.writeSuccessorsOf(n)
}

type decoder struct {
	r        *serialization.Reader
	payloads PayloadCodec
	nodes    nodeTable
	groups   *serialization.ReadIdentities[plan.Group]
}

func (d *decoder) readNode() (*plan.Node, error) {
	n, err := d.payloads.ReadNode(d.r)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	if n == nil {
		return nil, errors.New("payload: delegate returned no node")
	}
	if err := d.readSuccessorsOf(n); err != nil {
		return nil, fmt.Errorf("%s: %w", n.Path, err)
	}
	n.Require()
	if !n.Kind.DefersFinalization() {
		n.DependenciesProcessed()
	}
	return n, nil
}
