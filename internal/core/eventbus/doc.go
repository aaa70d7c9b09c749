// Package eventbus 实现进程内事件总线
//
// 提供类型安全的事件发布/订阅机制，支持：
//   - 多订阅者
//   - 缓冲区配置
//   - 发射器引用计数
//   - 并发安全
//   - 有状态模式（Stateful）
//
// 发现服务通过总线上抛入站结果与处理器失败：
// types.EvtDiscoInfo、types.EvtDiscoItems、types.EvtHandlerError。
//
// # 快速开始
//
//	// 创建总线
//	bus := eventbus.NewBus()
//
//	// 订阅事件
//	sub, _ := bus.Subscribe(new(types.EvtDiscoInfo))
//	defer sub.Close()
//
//	go func() {
//	    for evt := range sub.Out() {
//	        e := evt.(*types.EvtDiscoInfo)
//	        // 处理事件
//	    }
//	}()
//
//	// 发射事件
//	em, _ := bus.Emitter(new(types.EvtDiscoInfo))
//	defer em.Close()
//	em.Emit(&types.EvtDiscoInfo{...})
//
// # Fx 模块
//
//	app := fx.New(
//	    eventbus.Module(),
//	    fx.Invoke(func(bus pkgif.EventBus) {
//	        sub, _ := bus.Subscribe(new(types.EvtDiscoInfo))
//	        // ...
//	    }),
//	)
package eventbus
