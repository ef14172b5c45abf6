package gpu

// Vertex is one corner of a glyph or background quad. Positions are in
// pixels with the origin at the top left; U and V are texture
// coordinates into the bound atlas texture.
type Vertex struct {
	X, Y float32
	U, V float32

	// Color is premultiplied-alpha-free RGBA in [0, 1]. Textured quads
	// modulate the sampled coverage with it; untextured quads fill with
	// it directly.
	Color [4]float32
}

// DrawCall draws a contiguous range of vertices, six per quad. A nil
// Texture draws solid quads (cell backgrounds); otherwise the quad
// samples glyph coverage from the texture.
type DrawCall struct {
	Texture     *Texture
	FirstVertex int
	VertexCount int
}

// Device is the rendering backend the pipeline talks to. A frame is
// one WriteVertices call followed by one Draw; texture writes may
// happen any time before the Draw that samples them.
//
// Implementations are not required to be concurrent-safe; the render
// pipeline serializes access.
type Device interface {
	// CreateTexture allocates a texture.
	CreateTexture(config TextureConfig) (*Texture, error)

	// WriteTexture pushes staging data for the given regions. data
	// must cover the whole texture; rects narrow the upload.
	WriteTexture(t *Texture, data []byte, rects []UploadRect) error

	// WriteVertices replaces the frame's vertex buffer.
	WriteVertices(verts []Vertex) error

	// Draw executes the calls in order against the current vertex
	// buffer.
	Draw(calls []DrawCall) error
}
