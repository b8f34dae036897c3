package main

import (
	"context"
	"fmt"
	"log"
	"time"

	waterworks "github.com/Adi0604/Water-Works"
)

const demoConfig = `
sources:
  - {name: demo, kind: xlsx, path: ./unused.xlsx, delay: 200ms}
variants:
  - name: Demo Plant
    slug: demo
    source: demo
    feed: pumps
    flow: [{name: P1 Flow Rate, max: 1000}]
    totalizer: [{name: P1 Totalizer, max: 1000}]
`

func main() {
	cfg, err := waterworks.ParseConfig([]byte(demoConfig))
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	src := waterworks.NewMemorySource("demo")
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		src.Add("pumps", waterworks.Row{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Values: map[string]float64{
				"P1 Flow Rate": 300 + float64(i*75),
				"P1 Totalizer": 12000 + float64(i*40),
			},
		})
	}

	flow, err := waterworks.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("flow: %v", err)
	}
	flow.Sources(waterworks.SourceOverride("demo", src))

	sink := waterworks.NewCallbackSink("stdout", func(ev waterworks.Event) error {
		if ev.Kind == waterworks.EventRender {
			fmt.Printf("step %d: flow %.1f of max %.0f\n",
				ev.Render.Seq, ev.Render.Row.Value("P1 Flow Rate"), ev.Render.Catalog.Flow[0].Max)
			return nil
		}
		fmt.Println(waterworks.FormatEvent(ev))
		return nil
	})

	sum, err := flow.Replay(context.Background(), "demo", sink)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}
	fmt.Printf("rendered %d of %d steps\n", sum.Rendered, sum.Steps)
}
