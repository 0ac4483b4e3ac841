package render

type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Mesh is one drawable of a Model. Material indexes Model.Materials.
type Mesh struct {
	Vertices    BufferObject
	Indices     BufferObject
	VertexCount uint32
	IndexCount  uint32
	Material    int
}

type Material struct {
	Texture   TextureObject
	AlphaMode AlphaMode
}

type Model struct {
	Meshes    []Mesh
	Materials []Material
}

// Destroy releases every mesh buffer and material texture of m.
func (m *Model) Destroy(r *Resources) {
	for _, mesh := range m.Meshes {
		r.DestroyBuffer(mesh.Vertices)
		r.DestroyBuffer(mesh.Indices)
	}
	for _, mat := range m.Materials {
		r.DestroyTexture(mat.Texture)
	}
	m.Meshes = nil
	m.Materials = nil
}
