// Package godisco 实现寻址分层命名空间中的服务发现。
//
// go-disco 回答网络对端的两个问题："你能做什么"（身份与特性）
// 和"你下面有什么"（子条目引用）。每个可寻址实体可以暴露若干
// 子命名空间（节点），查询以 (地址, 节点) 作用域为键。
//
// # 核心机制
//
// 发现行为由多级处理器层级驱动：全局处理器兜底大多数场景，
// 地址级与作用域级处理器按需覆盖，解析时最具体者胜出。默认
// 处理器由内存静态存储实现，保证零配置即可给出符合协议要求
// 的应答（根作用域的空信息应答会注入默认身份与特性）。
//
// # 协作者
//
// 传输成帧、地址解析、请求关联由端点协作者承担；入站结果通过
// 事件总线上抛；结果集分页是可选协作者能力。这些都不属于本模
// 块的职责范围。
//
// # 快速开始
//
//	d, err := godisco.New(
//	    godisco.WithEndpoint(ep),
//	    godisco.WithQueryTimeout(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = d.Start(ctx)
//	defer d.Close()
//
//	svc := d.Service()
//	_ = svc.AddIdentity(ctx, interfaces.AddIdentityOptions{
//	    Category: "client", Type: "bot",
//	})
//	info, err := svc.QueryInfo(ctx, "peer.example", "", nil)
package godisco
