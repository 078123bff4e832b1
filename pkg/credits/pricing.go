package credits

import "fmt"

// Price is the credit cost of one generation on a provider. Duration-priced
// kinds (video, audio) add PerSecond on top of BaseCost.
type Price struct {
	Provider    string
	Kind        string
	BaseCost    int
	PerSecond   int
	Description string
}

type Catalog struct {
	prices map[string]Price
}

func key(provider, kind string) string {
	return provider + "/" + kind
}

// NewCatalog returns the default price catalog.
func NewCatalog() *Catalog {
	c := &Catalog{prices: make(map[string]Price)}
	for _, p := range []Price{
		{Provider: "openai", Kind: "image", BaseCost: 4, Description: "DALL-E image generation"},
		{Provider: "stability", Kind: "image", BaseCost: 2, Description: "Stable Diffusion image generation"},
		{Provider: "runway", Kind: "video", BaseCost: 10, PerSecond: 5, Description: "Gen-3 video generation"},
		{Provider: "openai", Kind: "audio", BaseCost: 2, Description: "Text-to-speech audio generation"},
	} {
		c.prices[key(p.Provider, p.Kind)] = p
	}
	return c
}

// Cost returns the credit price for a request, or an error when the
// provider/kind pair is not sold.
func (c *Catalog) Cost(provider, kind string, durationSeconds int) (int, error) {
	p, ok := c.prices[key(provider, kind)]
	if !ok {
		return 0, fmt.Errorf("no price for %s %s generation", provider, kind)
	}

	cost := p.BaseCost
	if p.PerSecond > 0 && durationSeconds > 0 {
		cost += p.PerSecond * durationSeconds
	}
	return cost, nil
}

func (c *Catalog) List() []Price {
	out := make([]Price, 0, len(c.prices))
	for _, p := range c.prices {
		out = append(out, p)
	}
	return out
}
