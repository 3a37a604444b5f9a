package synonym

// builtinDictionary is the minimal fallback vocabulary used when no synonym
// data files are available. It covers the company, market-direction and
// financial-metric words the scorer's curated keyword lists rely on.
func builtinDictionary() map[string][]string {
	return map[string][]string{
		"苹果":        {"Apple", "苹果公司"},
		"Apple":     {"苹果", "苹果公司"},
		"谷歌":        {"Google", "谷歌公司"},
		"Google":    {"谷歌", "谷歌公司"},
		"微软":        {"Microsoft", "微软公司"},
		"Microsoft": {"微软", "微软公司"},
		"上涨":        {"涨", "上升", "攀升", "增长", "飙升", "走高"},
		"涨":         {"上涨", "上升", "攀升", "增长", "走高"},
		"走高":        {"上涨", "上升", "攀升", "增长", "飙升"},
		"下跌":        {"跌", "下降", "下滑", "暴跌", "走低"},
		"跌":         {"下跌", "下降", "下滑", "走低"},
		"走低":        {"下跌", "下降", "下滑", "暴跌"},
		"发布":        {"公布", "宣布", "推出", "发表"},
		"公布":        {"发布", "宣布", "推出"},
		"股价":        {"股票价格", "股值"},
		"市值":        {"市场价值", "总市值"},
		"营收":        {"营业收入", "收入", "销售额"},
	}
}
