package feedprep

import (
	"fmt"
	"math/rand"
)

// SetDefaults fills in presentation fields a downstream renderer expects.
// Routes without a color get a random one drawn from rng so that two routes
// rarely collide, and routes without a text color render black on it.
func (f *Feed) SetDefaults(rng *rand.Rand) {
	for i := range f.Routes {
		route := &f.Routes[i]
		if route.Color == "" {
			route.Color = fmt.Sprintf("%06X", rng.Intn(0x1000000))
		}
		if route.TextColor == "" {
			route.TextColor = "000000"
		}
	}
}
