// Package disco 实现服务发现核心。
//
// # 架构定位
//
//   - 公共接口: pkg/interfaces/disco.go
//   - 协议 ID: pkg/protocolids
//   - 协作者: 端点（传输）、事件总线（结果投递）、分页器（可选）
//
// # 核心组件
//
//  1. StaticStore -- 零配置行为的内存后备存储，每个作用域一条
//     记录（身份集合、特性集合、条目列表），首次写入时创建。
//
//  2. Registry -- 多级处理器注册表。每个发现操作有三级回退层级：
//     全局 → 地址级 → 作用域级，解析时最具体者胜出。构造期为
//     每个操作安装绑定静态存储的默认处理器。
//
//  3. Service -- 面向协议的调度器。入站查询解析处理器、组装应
//     答（含根作用域的默认身份/特性注入）并经端点回发；出站查
//     询管理请求/响应关联，支持阻塞、回调、待定句柄与事件四种
//     完成模式，以及可选的分页迭代与信息结果缓存。
//
// # 处理器层级
//
//	地址   | 节点  | 级别
//	-----------------------
//	未指定 | 未指定 | 全局
//	指定   | 未指定 | 该地址下全部节点
//	未指定 | 指定   | 自身地址上的节点
//	指定   | 指定   | 单个作用域
//
// # 使用示例
//
//	svc, err := disco.NewService(disco.Deps{
//	    Endpoint: ep,
//	    EventBus: bus,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = svc.Start(ctx)
//
//	// 登记自身能力
//	_ = svc.AddIdentity(ctx, interfaces.AddIdentityOptions{
//	    Category: "client", Type: "bot", Name: "demo",
//	})
//	_ = svc.AddFeature(ctx, "", "", string(protocolids.DiscoItems))
//
//	// 查询远端实体
//	info, err := svc.QueryInfo(ctx, "peer.example", "", nil)
package disco
