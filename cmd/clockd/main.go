// Command clockd wires the config and power services to a simulated chip
// over the bus and drives a short request script against them.
package main

import (
	"context"
	"os"
	"time"

	"clockseq-go/board"
	"clockseq-go/bus"
	"clockseq-go/config"
	cfgsvc "clockseq-go/services/config"
	"clockseq-go/services/power"
)

func printTopicWith(prefix string, t bus.Topic) {
	print(prefix)
	print(" ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
	println()
}

func main() {
	profile := config.DefaultProfile
	if len(os.Args) > 1 {
		profile = os.Args[1]
	}
	p, err := config.Resolve(profile)
	if err != nil {
		println("[main] profile:", err.Error())
		os.Exit(1)
	}
	brd, err := board.NewSim(p)
	if err != nil {
		println("[main] board:", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	println("[main] bootstrapping bus …")
	b := bus.NewBus(8)
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("hal", "clock", "#"))
	go func() {
		for m := range mon.Channel() {
			printTopicWith("[monitor] <-", m.Topic)
		}
	}()

	power.New(brd.Burst, brd.I2S).Start(ctx, b.NewConnection("power"))
	ctx = context.WithValue(ctx, cfgsvc.CtxDeviceKey, profile)
	cfgsvc.NewConfigService().Start(ctx, b.NewConnection("config"))

	time.Sleep(100 * time.Millisecond)

	request := func(topic bus.Topic, payload any) {
		rctx, rcancel := context.WithTimeout(ctx, time.Second)
		defer rcancel()
		reply, err := uiConn.RequestWait(rctx, uiConn.NewMessage(topic, payload, false))
		if err != nil {
			println("[main] request error:", err.Error())
			return
		}
		switch r := reply.Payload.(type) {
		case power.BurstReply:
			println("[main] burst reply ok:", r.OK, "avail:", r.Avail, "mode:", r.Mode, "error:", r.Error)
		case power.ClockReply:
			println("[main] clock reply ok:", r.OK, "clock:", r.Clock, "error:", r.Error)
		}
	}

	request(power.TopicBurstControl("init"), nil)
	request(power.TopicBurstControl("enable"), nil)
	request(power.TopicI2SSet(0), power.ClockRequest{Clock: "pll_fout3"})
	request(power.TopicI2SSet(1), power.ClockRequest{Clock: "pll_fout3"})
	request(power.TopicBurstControl("disable"), nil)

	for _, v := range brd.Chip.Violations() {
		println("[main] violation:", v)
	}
	println("[main] simulated time us:", brd.Clock.NowUs())
	cancel()
	time.Sleep(50 * time.Millisecond)
}
