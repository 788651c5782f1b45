package main

import (
	"fmt"
	"strings"
	"testing"
)

// recordingBackend logs every call a flush makes.
type recordingBackend struct {
	calls []string
	seen  []Pipeline
}

func (r *recordingBackend) Name() string { return "recording" }
func (r *recordingBackend) Begin()       { r.calls = append(r.calls, "begin") }
func (r *recordingBackend) End()         { r.calls = append(r.calls, "end") }

func (r *recordingBackend) SetPipeline(p Pipeline) {
	r.calls = append(r.calls, "pipeline")
	r.seen = append(r.seen, p)
}

func (r *recordingBackend) DrawMesh(m *MeshSubmission) {
	r.calls = append(r.calls, fmt.Sprintf("mesh/%d", len(m.Indices)/3))
}

func (r *recordingBackend) FillRect(rect RectSubmission) {
	r.calls = append(r.calls, fmt.Sprintf("rect/%08X", rect.Color))
}

func (r *recordingBackend) trace() string {
	return strings.Join(r.calls, " ")
}

func addTri(cb *CommandBuffer) {
	tri, _ := BuiltinMesh("tri")
	cb.AddMeshIndexed(tri.Verts, tri.UVs, tri.Colors, tri.Indices, Mat4Identity())
}

func TestCommandBuffer_EmptyFlushMakesNoCalls(t *testing.T) {
	cb := NewCommandBuffer()
	cb.SetPipeline(ShadowPipeline())
	rec := &recordingBackend{}
	cb.Flush(rec)
	if len(rec.calls) != 0 {
		t.Fatalf("empty flush called %q", rec.trace())
	}
}

func TestCommandBuffer_PipelineIsSticky(t *testing.T) {
	cb := NewCommandBuffer()
	addTri(cb)
	cb.SetPipeline(ShadowPipeline())
	addTri(cb)
	cb.AddColoredRect(0, 0, 4, 4, 0xFF0000FF)
	cb.SetPipeline(ShadowPipeline())
	addTri(cb)
	cb.SetPipeline(DamageFlashPipeline())
	addTri(cb)

	rec := &recordingBackend{}
	cb.Flush(rec)

	want := "begin pipeline mesh/1 pipeline mesh/1 rect/FF0000FF mesh/1 pipeline mesh/1 end"
	if got := rec.trace(); got != want {
		t.Fatalf("flush trace\n got %s\nwant %s", got, want)
	}
	if rec.seen[0] != DefaultPipeline() {
		t.Errorf("first submission used %+v, want the default pipeline", rec.seen[0])
	}
	if rec.seen[1] != ShadowPipeline() || rec.seen[2] != DamageFlashPipeline() {
		t.Errorf("pipelines out of order: %+v", rec.seen)
	}
}

func TestCommandBuffer_FlushTwiceReplays(t *testing.T) {
	cb := NewCommandBuffer()
	addTri(cb)
	a, b := &recordingBackend{}, &recordingBackend{}
	cb.Flush(a)
	cb.Flush(b)
	if a.trace() != b.trace() {
		t.Fatalf("second flush differs: %q vs %q", a.trace(), b.trace())
	}
}

func TestCommandBuffer_ClearResetsState(t *testing.T) {
	cb := NewCommandBuffer()
	cb.SetPipeline(ShadowPipeline())
	addTri(cb)
	cb.Clear()

	if cb.Len() != 0 {
		t.Fatalf("Len after Clear = %d", cb.Len())
	}
	if cb.Pipeline() != DefaultPipeline() {
		t.Fatalf("Clear kept pipeline %+v", cb.Pipeline())
	}

	rec := &recordingBackend{}
	cb.Flush(rec)
	if len(rec.calls) != 0 {
		t.Fatalf("flush after Clear called %q", rec.trace())
	}
}

func TestPipeline_WithIsNonMutating(t *testing.T) {
	base := DefaultPipeline()
	derived := base.WithBlend(true).WithPrimColor(0x11223344).WithDepth(false, false)
	if base != DefaultPipeline() {
		t.Fatalf("With* modified the receiver: %+v", base)
	}
	if !derived.Blend || derived.ZCompare || derived.Primitive() != (Color{0x11, 0x22, 0x33, 0x44}) {
		t.Fatalf("derived pipeline %+v", derived)
	}
	if derived.WithoutPrimColor().Primitive() != (Color{}) {
		t.Fatal("WithoutPrimColor kept a primitive colour")
	}
}

func TestPipeline_VariantKeyIgnoresUniforms(t *testing.T) {
	a := ShadowPipeline()
	b := a.WithPrimColor(0xFF00FF80)
	if a.variantKey() != b.variantKey() {
		t.Fatal("primitive colour changed the variant")
	}
	tex := TexturedPipeline(CheckerTexture())
	other := tex.WithTexture(&Texture{Width: 1, Height: 1, Texels: []uint16{1}})
	if tex.variantKey() != other.variantKey() {
		t.Fatal("texture contents changed the variant")
	}
	if tex.variantKey() == tex.WithTexture(nil).variantKey() {
		t.Fatal("texture presence did not change the variant")
	}
}
