package render

// RenderTargets is the single render pass and one framebuffer per swapchain
// image, each pairing that image's view with the shared depth view.
type RenderTargets struct {
	RenderPass   RenderPass
	Framebuffers []Framebuffer
	Extent       Extent2D
}

// renderPassInfo clears both attachments and hands the color image to the
// presentation engine when the pass ends.
func renderPassInfo(color, depth Format) RenderPassInfo {
	return RenderPassInfo{
		Color: AttachmentDesc{
			Format:        color,
			LoadOp:        AttachmentLoadOpClear,
			StoreOp:       AttachmentStoreOpStore,
			InitialLayout: ImageLayoutUndefined,
			FinalLayout:   ImageLayoutPresentSrc,
		},
		Depth: AttachmentDesc{
			Format:        depth,
			LoadOp:        AttachmentLoadOpClear,
			StoreOp:       AttachmentStoreOpStore,
			InitialLayout: ImageLayoutUndefined,
			FinalLayout:   ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
}

func createRenderTargets(drv Driver, device Device, sc *SwapchainState, rel *releaseStack) (*RenderTargets, error) {
	rt := &RenderTargets{Extent: sc.Extent}

	rp, err := drv.CreateRenderPass(device, renderPassInfo(sc.Format.Format, sc.Depth.Format))
	if err != nil {
		return nil, fatal(err, "create render pass")
	}
	rt.RenderPass = rp
	rel.push("render pass", func() { drv.DestroyRenderPass(device, rp) })

	rt.Framebuffers = make([]Framebuffer, 0, len(sc.Views))
	for i, view := range sc.Views {
		fb, err := drv.CreateFramebuffer(device, FramebufferInfo{
			RenderPass:  rp,
			Attachments: []ImageView{view, sc.Depth.View},
			Extent:      sc.Extent,
		})
		if err != nil {
			return nil, fatalf(err, "create framebuffer %d", i)
		}
		rt.Framebuffers = append(rt.Framebuffers, fb)
		rel.push("framebuffer", func() { drv.DestroyFramebuffer(device, fb) })
	}
	return rt, nil
}
