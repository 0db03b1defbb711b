// Package httpclient はゲートウェイからバックエンドサービスへのHTTP通信を行うクライアントを提供する。
//
// 全てのバックエンドアダプタはこのパッケージを通してリクエストを送信する。
// 1回の呼び出しには固定のタイムアウト（10秒）が適用され、送信失敗はネットワーク障害、
// 非成功ステータスはバックエンドの拒否としてapperror.Errorに変換される。
// リトライは行わない。
package httpclient
