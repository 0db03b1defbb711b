// Package entity はゲートウェイが中継・結合するバックエンド所有のリソースを定義する。
//
// ここで定義する型はバックエンドのレスポンスから生成され、クライアントへの
// シリアライズ後に破棄される読み取り専用の射影である。ゲートウェイは永続化しない。
package entity
