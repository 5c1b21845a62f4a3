package main

import (
	"context"
	"fmt"
	"os"

	"attentiond/bootstrap"
)

func main() {
	if err := bootstrap.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "attentiond: %v\n", err)
		os.Exit(1)
	}
}
