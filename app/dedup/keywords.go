package dedup

// Curated keyword lists for semantic element extraction. Longer variants
// come first so the canonical-group scan sees the most specific form.

var companyPatterns = []string{
	"苹果公司", "Apple", "苹果",
	"谷歌公司", "Google", "谷歌",
	"微软公司", "Microsoft", "微软",
	"特斯拉", "Tesla",
	"亚马逊", "Amazon",
	"脸书", "Facebook", "Meta",
	"阿里巴巴", "腾讯", "百度", "华为", "小米", "OPPO", "vivo",
}

var actionPatterns = []string{
	"上涨", "涨", "攀升", "增长", "飙升", "走高",
	"下跌", "跌", "下滑", "暴跌", "下降", "走低",
	"发布", "公布", "宣布", "推出", "发表",
	"收购", "并购", "投资", "融资",
	"突破", "刷新", "创下",
	"缩量", "放量",
}

var themePatterns = []string{
	"股价", "股票", "股值",
	"市值", "市场价值",
	"营收", "营业收入", "收入", "销售额",
	"利润", "净利润",
	"产品", "服务", "技术",
	"成交额", "成交量",
}

type canonicalGroup struct {
	canonical string
	variants  []string
}

// canonicalGroups maps keyword variants to a representative form per
// category. Order matters: groups are scanned first-to-last.
var canonicalGroups = map[string][]canonicalGroup{
	"company": {
		{"苹果", []string{"Apple", "苹果公司"}},
		{"谷歌", []string{"Google", "谷歌公司"}},
		{"微软", []string{"Microsoft", "微软公司"}},
	},
	"action": {
		{"上涨", []string{"涨", "攀升", "增长", "飙升", "走高"}},
		{"下跌", []string{"跌", "下滑", "暴跌", "下降", "走低"}},
		{"发布", []string{"公布", "宣布", "推出", "发表"}},
		{"突破", []string{"刷新", "创下"}},
	},
	"theme": {
		{"股价", []string{"股票", "股值"}},
		{"营收", []string{"营业收入", "收入", "销售额"}},
		{"市值", []string{"市场价值", "总市值"}},
		{"成交额", []string{"成交量"}},
	},
}

var stopwords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "和": {},
	"与": {}, "或": {}, "等": {}, "今天": {}, "昨天": {}, "明天": {},
}
