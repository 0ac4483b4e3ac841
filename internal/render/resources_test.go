package render

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
)

func newTestResources(drv *fakeDriver) *Resources {
	dev := &DeviceContext{
		drv:         drv,
		log:         discardLogger(),
		Device:      Device(drv.handle()),
		Queue:       Queue(drv.handle()),
		CommandPool: CommandPool(drv.handle()),
		Memory:      MemoryTypes(drv.memTypes),
	}
	return newResources(drv, dev, discardLogger())
}

func TestCreateBufferRoundTrip(t *testing.T) {
	for _, n := range []int{1, 3, 64, 300, 4096} {
		drv := newFakeDriver()
		res := newTestResources(drv)
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*7 + 1)
		}
		buf, err := res.CreateBuffer(uint64(n), BufferUsageVertex,
			MemoryPropertyHostVisible|MemoryPropertyHostCoherent, data)
		if err != nil {
			t.Fatalf("CreateBuffer(%d): %v", n, err)
		}
		got, err := res.ReadBuffer(buf, uint64(n))
		if err != nil {
			t.Fatalf("ReadBuffer: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("size %d: read back differs", n)
		}
		if drv.mapped != 0 {
			t.Fatalf("size %d: %d mappings left open", n, drv.mapped)
		}
		// allocation follows requirements, not the requested size
		if alloc := len(drv.memory[buf.Memory]); alloc < n || alloc%256 != 0 {
			t.Fatalf("size %d: allocation of %d bytes", n, alloc)
		}
		if typ := drv.memoryType[buf.Memory]; typ != 1 {
			t.Fatalf("memory type = %d, want 1", typ)
		}
	}
}

func TestCreateBufferCopiesOnlySize(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf, err := res.CreateBuffer(4, BufferUsageUniform, MemoryPropertyHostVisible, data)
	if err != nil {
		t.Fatal(err)
	}
	mem := drv.memory[buf.Memory]
	if !bytes.Equal(mem[:4], data[:4]) {
		t.Fatalf("head = %v", mem[:4])
	}
	for i, b := range mem[4:] {
		if b != 0 {
			t.Fatalf("byte %d past size written: %d", i+4, b)
		}
	}
}

func TestCreateBufferInitialDataTooShort(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	_, err := res.CreateBuffer(16, BufferUsageVertex, MemoryPropertyHostVisible, []byte{1, 2})
	if !errors.Is(err, ErrResourceCreation) {
		t.Fatalf("err = %v, want resource creation error", err)
	}
	if n := len(drv.filter("create:")); n != 0 {
		t.Fatalf("created %d objects before validating", n)
	}
}

func TestCreateBufferDeviceLocalIgnoresData(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	buf, err := res.CreateBuffer(8, BufferUsageVertex, MemoryPropertyDeviceLocal, make([]byte, 8))
	if err != nil {
		t.Fatal(err)
	}
	if len(drv.filter("map:")) != 0 {
		t.Fatal("device-local buffer was mapped")
	}
	if typ := drv.memoryType[buf.Memory]; typ != 0 {
		t.Fatalf("memory type = %d, want 0", typ)
	}
	if _, err := res.ReadBuffer(buf, 8); err == nil {
		t.Fatal("ReadBuffer of device-local memory succeeded")
	}
}

func TestCreateBufferCleansUpOnFailure(t *testing.T) {
	tests := []struct {
		op       string
		destroys []string
	}{
		{"memory", []string{"destroy:buffer:4"}},
		{"bindbuffer", []string{"destroy:buffer:4", "destroy:memory:5"}},
		{"map", []string{"destroy:buffer:4", "destroy:memory:5"}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			drv := newFakeDriver()
			res := newTestResources(drv)
			drv.fail[tt.op] = errors.New("boom")
			_, err := res.CreateBuffer(32, BufferUsageVertex, MemoryPropertyHostVisible, make([]byte, 32))
			if !errors.Is(err, ErrResourceCreation) {
				t.Fatalf("err = %v, want resource creation error", err)
			}
			got := drv.filter("destroy:")
			if len(got) != len(tt.destroys) {
				t.Fatalf("destroys = %v, want %v", got, tt.destroys)
			}
			for i := range got {
				if got[i] != tt.destroys[i] {
					t.Fatalf("destroys = %v, want %v", got, tt.destroys)
				}
			}
		})
	}
}

func TestCreateBufferNoMemoryType(t *testing.T) {
	drv := newFakeDriver()
	drv.memTypeBits = 0b01
	res := newTestResources(drv)
	_, err := res.CreateBuffer(32, BufferUsageVertex, MemoryPropertyHostVisible, nil)
	if !errors.Is(err, ErrNoMemoryType) {
		t.Fatalf("err = %v, want ErrNoMemoryType", err)
	}
}

func TestWriteBufferBounds(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	buf, err := res.CreateBuffer(8, BufferUsageUniform, MemoryPropertyHostVisible, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := res.WriteBuffer(buf, 4, []byte{9, 9, 9, 9}); err != nil {
		t.Fatalf("WriteBuffer at tail: %v", err)
	}
	if err := res.WriteBuffer(buf, 6, []byte{1, 2, 3}); err == nil {
		t.Fatal("overflowing write succeeded")
	}
	got, _ := res.ReadBuffer(buf, 8)
	if !bytes.Equal(got, []byte{0, 0, 0, 0, 9, 9, 9, 9}) {
		t.Fatalf("contents = %v", got)
	}
}

func TestCreateTextureObject(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	tex, err := res.CreateTextureObject(pixels, 2, 2)
	if err != nil {
		t.Fatalf("CreateTextureObject: %v", err)
	}
	if tex.Extent != (Extent3D{Width: 2, Height: 2, Depth: 1}) {
		t.Fatalf("extent = %+v", tex.Extent)
	}
	info := drv.images[tex.Image]
	if info.Extent != tex.Extent || info.Format != FormatR8G8B8A8Unorm {
		t.Fatalf("image info = %+v", info)
	}
	if info.Usage != ImageUsageTransferDst|ImageUsageSampled {
		t.Fatalf("image usage = %#x", info.Usage)
	}

	var staging []BufferInfo
	for _, b := range drv.buffers {
		staging = append(staging, b)
	}
	if len(staging) != 1 || staging[0].Size != 16 || staging[0].Usage != BufferUsageTransferSrc {
		t.Fatalf("staging buffers = %+v, want one 16 byte transfer source", staging)
	}

	if len(drv.barriers) != 2 {
		t.Fatalf("barriers = %d, want 2", len(drv.barriers))
	}
	if b := drv.barriers[0]; b.OldLayout != ImageLayoutUndefined || b.NewLayout != ImageLayoutTransferDstOptimal {
		t.Fatalf("first barrier %s -> %s", b.OldLayout, b.NewLayout)
	}
	if b := drv.barriers[1]; b.OldLayout != ImageLayoutTransferDstOptimal || b.NewLayout != ImageLayoutShaderReadOnlyOptimal {
		t.Fatalf("second barrier %s -> %s", b.OldLayout, b.NewLayout)
	}

	// copy happens between the barriers, the wait happens before staging is freed
	copyAt := indexWithPrefix(drv.calls, "copy:")
	firstBarrier := indexWithPrefix(drv.calls, "barrier:")
	submitAt := indexWithPrefix(drv.calls, "submit:")
	idleAt := drv.indexOf("waitidle")
	stagingFreed := indexWithPrefix(drv.calls, "destroy:buffer:")
	if !(firstBarrier < copyAt && copyAt < submitAt && submitAt < idleAt && idleAt < stagingFreed) {
		t.Fatalf("unexpected call order: %v", drv.calls)
	}
	if len(drv.filter("destroy:cmdbuf:")) != 1 {
		t.Fatal("one-shot command buffer not freed")
	}
	if len(drv.filter("destroy:image:")) != 0 {
		t.Fatal("texture image destroyed on success")
	}
}

func TestCreateTextureObjectRejectsShortPixels(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	if _, err := res.CreateTextureObject(make([]byte, 15), 2, 2); !errors.Is(err, ErrResourceCreation) {
		t.Fatalf("err = %v", err)
	}
	if _, err := res.CreateTextureObject(nil, 0, 4); !errors.Is(err, ErrResourceCreation) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateTextureObjectSubmitFailure(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	drv.fail["submit"] = errors.New("device lost")
	if _, err := res.CreateTextureObject(make([]byte, 16), 2, 2); err == nil {
		t.Fatal("expected error")
	}
	for _, kind := range []string{"image", "memory", "buffer", "cmdbuf"} {
		created := len(drv.filter("create:" + kind + ":"))
		destroyed := len(drv.filter("destroy:" + kind + ":"))
		if created != destroyed {
			t.Fatalf("%s: created %d destroyed %d", kind, created, destroyed)
		}
	}
}

func TestModelDestroy(t *testing.T) {
	drv := newFakeDriver()
	res := newTestResources(drv)
	vb, _ := res.CreateBuffer(64, BufferUsageVertex, MemoryPropertyHostVisible, nil)
	ib, _ := res.CreateBuffer(64, BufferUsageIndex, MemoryPropertyHostVisible, nil)
	tex, err := res.CreateTextureObject(make([]byte, 16), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	m := &Model{
		Meshes:    []Mesh{{Vertices: vb, Indices: ib, VertexCount: 3, IndexCount: 3}},
		Materials: []Material{{Texture: tex, AlphaMode: AlphaOpaque}},
	}
	m.Destroy(res)
	if m.Meshes != nil || m.Materials != nil {
		t.Fatal("model not emptied")
	}
	for _, want := range []string{
		"destroy:buffer:" + itoa(uint64(vb.Buffer)),
		"destroy:buffer:" + itoa(uint64(ib.Buffer)),
		"destroy:view:" + itoa(uint64(tex.View)),
		"destroy:image:" + itoa(uint64(tex.Image)),
	} {
		if drv.indexOf(want) < 0 {
			t.Fatalf("missing %s", want)
		}
	}
}

func indexWithPrefix(calls []string, prefix string) int {
	for i, c := range calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			return i
		}
	}
	return -1
}
