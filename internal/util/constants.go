package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 批量导入题目的工作表列布局
const (
	ImportSheetName    = "questions"
	ImportColKind      = 0
	ImportColPrompt    = 1
	ImportColOptions   = 2 // 选项以 | 分隔
	ImportColAnswer    = 3 // 下标键填数字，字符串键填原文
	ImportColTopic     = 4
	ImportColRemedial  = 5 // yes 表示补救题池条目
	ImportOptionSep    = "|"
	ImportRemedialFlag = "yes"
)
