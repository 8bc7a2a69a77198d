package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/telemetryclient/cache"
)

func ExampleLoader() {
	fetches := 0
	loader, err := cache.NewLoader[string](cache.NewMemory[string](nil), cache.PolicyFor(time.Minute), "status",
		func(ctx context.Context) (string, error) {
			fetches++
			return "healthy", nil
		})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	a, _ := loader.Load(ctx)
	b, _ := loader.Load(ctx)

	fmt.Println(a, b, fetches)
	// Output:
	// healthy healthy 1
}
