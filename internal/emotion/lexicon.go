package emotion

import "github.com/mindflow/mindflow/internal/models"

// SubLexicon backs one emotion sub-category with its keyword list.
type SubLexicon struct {
	Name     string
	Keywords []string
}

// CategoryLexicon groups the sub-lexicons of one emotion category.
// Order matters: sub-category ties resolve to the first entry that
// reached the running maximum.
type CategoryLexicon struct {
	Category models.EmotionCategory
	Subs     []SubLexicon
}

// intensityRule binds an intensity level to its intensifier words.
// Rules are scanned in declaration order and the last matching rule
// wins, so a later level overrides an earlier one.
type intensityRule struct {
	Level models.Intensity
	Words []string
}

// categoryLexicons is the curated emotion vocabulary. Loaded once;
// never mutated at runtime. Duplicate entries are deliberate weighting:
// tallying counts one point per list entry, so a keyword listed twice in
// a sub-lexicon scores double, and a keyword shared across categories
// scores for each of them.
var categoryLexicons = []CategoryLexicon{
	{
		Category: models.EmotionPositive,
		Subs: []SubLexicon{
			{Name: "joy", Keywords: []string{"开心", "快乐", "高兴", "欣喜", "愉悦", "兴奋", "雀跃", "喜悦"}},
			{Name: "satisfaction", Keywords: []string{"满意", "满足", "欣慰", "舒适", "安心", "踏实", "放松", "轻松"}},
			{Name: "hope", Keywords: []string{"期待", "充满希望", "乐观", "憧憬", "向往", "憧憬", "展望", "向上"}},
			{Name: "gratitude", Keywords: []string{"感激", "感谢", "感恩", "珍惜", "铭记", "感动", "暖心", "温暖"}},
			{Name: "confidence", Keywords: []string{"自信", "坚定", "笃定", "确信", "果断", "勇敢", "坚强", "无畏"}},
			{Name: "peace", Keywords: []string{"平和", "安宁", "祥和", "宁静", "恬淡", "淡然", "从容", "安详"}},
			{Name: "enthusiasm", Keywords: []string{"热情", "积极", "主动", "热心", "投入", "专注", "专心", "专一"}},
		},
	},
	{
		Category: models.EmotionNegative,
		Subs: []SubLexicon{
			{Name: "sadness", Keywords: []string{"难过", "伤心", "悲伤", "沮丧", "失落", "消沉", "低落", "忧郁"}},
			{Name: "anxiety", Keywords: []string{"焦虑", "担心", "紧张", "不安", "忐忑", "惶恐", "慌张", "恐慌"}},
			{Name: "anger", Keywords: []string{"生气", "愤怒", "恼火", "烦躁", "暴怒", "气愤", "恼怒", "激动"}},
			{Name: "fear", Keywords: []string{"害怕", "恐惧", "惊慌", "惶恐", "畏惧", "胆怯", "惊恐", "惊吓"}},
			{Name: "guilt", Keywords: []string{"内疚", "自责", "羞愧", "惭愧", "后悔", "懊悔", "愧疚", "自责"}},
			{Name: "helplessness", Keywords: []string{"无助", "无望", "绝望", "无力", "虚弱", "脆弱", "软弱", "无能"}},
			{Name: "loneliness", Keywords: []string{"孤独", "寂寞", "孤单", "空虚", "落寞", "凄凉", "冷清", "寂寥"}},
			{Name: "shame", Keywords: []string{"羞耻", "羞愧", "丢脸", "难堪", "尴尬", "窘迫", "羞涩", "羞赧"}},
		},
	},
	{
		Category: models.EmotionNeutral,
		Subs: []SubLexicon{
			{Name: "calm", Keywords: []string{"平静", "平和", "淡定", "从容", "安宁", "镇定", "冷静", "沉着"}},
			{Name: "stable", Keywords: []string{"稳定", "持平", "均衡", "适度", "中庸", "适中", "中和", "平衡"}},
			{Name: "objective", Keywords: []string{"客观", "理性", "中立", "公正", "冷静", "清醒", "明智", "理智"}},
			{Name: "contemplative", Keywords: []string{"思考", "沉思", "深思", "反思", "思索", "琢磨", "思量", "考虑"}},
			{Name: "ambivalent", Keywords: []string{"矛盾", "纠结", "犹豫", "摇摆", "徘徊", "彷徨", "迟疑", "踌躇"}},
		},
	},
}

// intensityRules: later matches overwrite earlier ones; default is
// moderate. 略微 sits in both the moderate and low lists, so it always
// resolves to low.
var intensityRules = []intensityRule{
	{Level: models.IntensityHigh, Words: []string{"非常", "特别", "极其", "格外", "十分", "很", "太", "尤其", "异常", "超级"}},
	{Level: models.IntensityModerate, Words: []string{"比较", "相当", "还算", "稍微", "有点", "略微", "一般", "普通"}},
	{Level: models.IntensityLow, Words: []string{"一点", "略微", "些许", "轻微", "偶尔", "稍许", "微微", "轻轻"}},
}

// Affect dimension keyword lists. High is checked before low, so high
// wins when a text contains words from both lists.
var (
	arousalHigh   = []string{"激动", "兴奋", "愤怒", "恐慌", "狂喜"}
	arousalLow    = []string{"平静", "疲倦", "无聊", "放松", "冷淡"}
	dominanceHigh = []string{"自信", "坚定", "果断", "主动", "掌控"}
	dominanceLow  = []string{"无助", "脆弱", "被动", "犹豫", "迷茫"}
	fluctuating   = []string{"波动", "变化", "起伏", "反复", "不定"}
)
